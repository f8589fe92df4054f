package style

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/atlasdatatech/arctile/internal/log"
)

// SpriteSheet identifies one sprite sheet by its base URL. The sheet's
// index lives at URL+".json" and its image at URL+".png".
type SpriteSheet struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Sprite is one icon's placement within a sheet image.
type Sprite struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

// SheetTask is the in-flight (or completed) load of one sprite sheet.
// The fetch runs at most once no matter how many rules share the sheet;
// callers block on Await before resolving icon names.
type SheetTask struct {
	Sheet SpriteSheet

	client *http.Client
	once   sync.Once
	done   chan struct{}

	sprites map[string]Sprite
	image   []byte
	err     error
}

// Await blocks until the sheet load completes or ctx is done.
func (t *SheetTask) Await(ctx context.Context) error {
	t.once.Do(func() { go t.fetch() })
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sprite resolves an icon name. Await must have returned nil first.
func (t *SheetTask) Sprite(name string) (Sprite, bool) {
	s, ok := t.sprites[name]
	return s, ok
}

// Image returns the raw sheet image bytes. Await must have returned nil
// first.
func (t *SheetTask) Image() []byte { return t.image }

func (t *SheetTask) fetch() {
	defer close(t.done)

	index, err := t.get(t.Sheet.URL + ".json")
	if err != nil {
		t.err = errors.Wrapf(err, "fetching sprite index for %v", t.Sheet.ID)
		return
	}
	if err := json.Unmarshal(index, &t.sprites); err != nil {
		t.err = errors.Wrapf(err, "parsing sprite index for %v", t.Sheet.ID)
		return
	}

	img, err := t.get(t.Sheet.URL + ".png")
	if err != nil {
		t.err = errors.Wrapf(err, "fetching sprite image for %v", t.Sheet.ID)
		return
	}
	t.image = img

	log.Debugf("loaded sprite sheet %v (%v sprites)", t.Sheet.ID, len(t.sprites))
}

func (t *SheetTask) get(url string) ([]byte, error) {
	res, err := t.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("GET %v returned %v", url, res.Status)
	}
	return io.ReadAll(res.Body)
}

// SpriteCache deduplicates sheet loads across compiles. The zero value is
// not usable; construct with NewSpriteCache and share one instance by
// reference wherever styles are compiled.
type SpriteCache struct {
	mu    sync.Mutex
	tasks map[string]*SheetTask
}

func NewSpriteCache() *SpriteCache {
	return &SpriteCache{tasks: make(map[string]*SheetTask)}
}

// Task returns the load task for the sheet, creating it on first use.
// The task does not start fetching until its first Await.
func (c *SpriteCache) Task(sheet SpriteSheet, client *http.Client) *SheetTask {
	if client == nil {
		client = http.DefaultClient
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tasks[sheet.URL]; ok {
		return t
	}
	t := &SheetTask{
		Sheet:  sheet,
		client: client,
		done:   make(chan struct{}),
	}
	c.tasks[sheet.URL] = t
	return t
}
