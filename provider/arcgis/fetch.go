package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/pkg/errors"

	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/internal/esripbf"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/tile"
)

// webMercatorWKID is the legacy well-known id FeatureServers expect for
// web-mercator requests; latestWkid is the EPSG code.
const (
	webMercatorWKID       = 102100
	webMercatorLatestWKID = 3857
)

type envelope struct {
	XMin             float64          `json:"xmin"`
	YMin             float64          `json:"ymin"`
	XMax             float64          `json:"xmax"`
	YMax             float64          `json:"ymax"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type spatialReference struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid,omitempty"`
}

type quantizationParameters struct {
	Extent           envelope         `json:"extent"`
	SpatialReference spatialReference `json:"spatialReference"`
	Mode             string           `json:"mode"`
	OriginPosition   string           `json:"originPosition"`
	Tolerance        float64          `json:"tolerance"`
}

func extentEnvelope(ext *geom.Extent) envelope {
	return envelope{
		XMin:             ext.MinX(),
		YMin:             ext.MinY(),
		XMax:             ext.MaxX(),
		YMax:             ext.MaxY(),
		SpatialReference: spatialReference{WKID: webMercatorWKID},
	}
}

// TileFeatures implements provider.Tiler. Pages are fetched sequentially —
// the next offset depends on the size of the page before it — until a short
// page, an empty page, a transport failure or the feature ceiling ends the
// loop. Transport failures are fail-soft: whatever was accumulated is
// normalized and returned, because a partially rendered tile beats a
// blocked one.
func (p *Provider) TileFeatures(ctx context.Context, t *tile.Tile) (map[string][]*feature.Feature, error) {
	buffered := t.BufferedExtent3857(p.buffer, p.tileSize)
	pixelSize := t.PixelSize(p.tileSize)

	var raws []esripbf.Feature
	offset := 0
	for {
		// cancellation is honored between pages; one in-flight request is
		// bounded by the client timeout
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := p.fetchPage(ctx, buffered, pixelSize, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Errorf("arcgis: tile %v/%v/%v page at offset %v failed, returning partial tile: %v", t.Z, t.X, t.Y, offset, err)
			break
		}
		if len(page.Features) == 0 {
			break
		}
		raws = append(raws, page.Features...)
		if len(page.Features) < p.pageSize {
			// short page, nothing more to fetch
			break
		}
		offset += p.pageSize
		if offset > p.maxTiledFeatures {
			log.Warnf("arcgis: tile %v/%v/%v exceeded %v features, truncating", t.Z, t.X, t.Y, p.maxTiledFeatures)
			break
		}
	}

	tr := feature.NewTransform(buffered, p.tileSize, p.buffer)
	feats := make([]*feature.Feature, 0, len(raws))
	for _, raw := range raws {
		fs, err := feature.Normalize(feature.Raw{Geometry: raw.Geometry, Properties: raw.Properties}, tr, p.policy)
		if err != nil {
			return nil, err
		}
		feats = append(feats, fs...)
	}

	return map[string][]*feature.Feature{p.layerName: feats}, nil
}

// fetchPage issues one pbf query for the buffered extent at the given
// result offset.
func (p *Provider) fetchPage(ctx context.Context, buffered *geom.Extent, pixelSize float64, offset int) (*esripbf.FeatureCollection, error) {
	env, err := json.Marshal(extentEnvelope(buffered))
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("f", "pbf")
	q.Set("resultType", "tile")
	q.Set("inSR", strconv.Itoa(webMercatorWKID))
	q.Set("geometry", string(env))
	q.Set("geometryType", "esriGeometryEnvelope")
	q.Set("outFields", strings.Join(p.outFields(), ","))
	q.Set("where", "1=1")
	q.Set("maxRecordCountFactor", strconv.Itoa(p.maxRecordCountFactor))
	q.Set("resultRecordCount", strconv.Itoa(p.pageSize))
	q.Set("outSR", strconv.Itoa(webMercatorWKID))
	q.Set("spatialRel", "esriSpatialRelIntersects")
	q.Set("maxAllowableOffset", strconv.FormatFloat(pixelSize, 'f', -1, 64))
	q.Set("outSpatialReference", strconv.Itoa(webMercatorWKID))
	q.Set("precision", "8")
	q.Set("resultOffset", strconv.Itoa(offset))

	if p.supportsQuantization {
		qp, err := json.Marshal(quantizationParameters{
			Extent:           extentEnvelope(buffered),
			SpatialReference: spatialReference{WKID: webMercatorWKID, LatestWKID: webMercatorLatestWKID},
			Mode:             "view",
			OriginPosition:   "upperLeft",
			Tolerance:        pixelSize,
		})
		if err != nil {
			return nil, err
		}
		q.Set("quantizationParameters", string(qp))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/query?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "querying page at offset %v", offset)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page query at offset %v returned status %v", offset, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading page body")
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("page query at offset %v returned an empty body", offset)
	}

	return esripbf.Decode(body)
}

// outFields is the union of the object-id field and any configured
// attribute fields.
func (p *Provider) outFields() []string {
	fields := []string{p.objectIDField}
	for _, f := range p.fields {
		if f != p.objectIDField {
			fields = append(fields, f)
		}
	}
	return fields
}
