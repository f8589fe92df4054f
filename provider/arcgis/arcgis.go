// Package arcgis implements a tile provider backed by a remote ArcGIS
// FeatureServer layer. Features are queried per tile over the binary pbf
// query protocol, decoded, and normalized into tile pixel space.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-spatial/geom"
	"github.com/pkg/errors"

	"github.com/atlasdatatech/arctile/dict"
	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/provider"
	"github.com/atlasdatatech/arctile/tile"
)

const Name = "arcgis"

// config keys
const (
	ConfigKeyURL            = "url"
	ConfigKeyLayerName      = "layer_name"
	ConfigKeyFields         = "fields"
	ConfigKeyObjectIDField  = "objectid_field"
	ConfigKeyPageSize       = "page_size"
	ConfigKeyMaxFeatures    = "max_tiled_features"
	ConfigKeyTileSize       = "tile_size"
	ConfigKeyBuffer         = "buffer"
	ConfigKeyGeometryPolicy = "geometry_policy"
	ConfigKeyEnablePick     = "enable_pick"
	ConfigKeyCountFactor    = "max_record_count_factor"
)

const (
	DefaultPageSize         = 2000
	DefaultMaxTiledFeatures = 100000
	DefaultObjectIDField    = "OBJECTID"

	metadataTimeout = 30 * time.Second
)

func init() {
	provider.Register(Name, NewTileProvider, nil)
}

// Provider queries one FeatureServer layer. Safe for concurrent tile
// requests; all fields are fixed after construction.
type Provider struct {
	url       string
	layerName string
	name      string

	fields        []string
	objectIDField string
	displayField  string

	pageSize             int
	maxTiledFeatures     int
	maxRecordCountFactor int
	tileSize             uint
	buffer               uint

	policy      feature.GeometryPolicy
	pickEnabled bool

	supportsQuantization bool
	geomType             geom.Geometry

	client *http.Client
}

// NewTileProvider builds a Provider from its config block and probes the
// layer's metadata. A failed probe downgrades capabilities instead of
// failing construction, so a briefly unreachable server does not take the
// whole config down.
func NewTileProvider(config dict.Dicter) (provider.Tiler, error) {
	rawURL, err := config.String(ConfigKeyURL, nil)
	if err != nil {
		return nil, err
	}
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	layerName := feature.LayerName
	if layerName, err = config.String(ConfigKeyLayerName, &layerName); err != nil {
		return nil, err
	}

	fields, err := config.StringSlice(ConfigKeyFields)
	if err != nil {
		return nil, err
	}

	oidField := ""
	if oidField, err = config.String(ConfigKeyObjectIDField, &oidField); err != nil {
		return nil, err
	}

	pageSize := DefaultPageSize
	if pageSize, err = config.Int(ConfigKeyPageSize, &pageSize); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize{Value: pageSize}
	}

	maxFeatures := DefaultMaxTiledFeatures
	if maxFeatures, err = config.Int(ConfigKeyMaxFeatures, &maxFeatures); err != nil {
		return nil, err
	}

	countFactor := 1
	if countFactor, err = config.Int(ConfigKeyCountFactor, &countFactor); err != nil {
		return nil, err
	}

	tileSize := uint(tile.DefaultTileSize)
	if tileSize, err = config.Uint(ConfigKeyTileSize, &tileSize); err != nil {
		return nil, err
	}

	buffer := uint(tile.DefaultBuffer)
	if buffer, err = config.Uint(ConfigKeyBuffer, &buffer); err != nil {
		return nil, err
	}

	policyName := ""
	if policyName, err = config.String(ConfigKeyGeometryPolicy, &policyName); err != nil {
		return nil, err
	}
	policy, err := feature.ParseGeometryPolicy(policyName)
	if err != nil {
		return nil, err
	}

	pick := true
	if pick, err = config.Bool(ConfigKeyEnablePick, &pick); err != nil {
		return nil, err
	}

	p := &Provider{
		url:                  strings.TrimRight(rawURL, "/"),
		layerName:            layerName,
		fields:               fields,
		objectIDField:        oidField,
		pageSize:             pageSize,
		maxTiledFeatures:     maxFeatures,
		maxRecordCountFactor: countFactor,
		tileSize:             tileSize,
		buffer:               buffer,
		policy:               policy,
		pickEnabled:          pick,
		client:               &http.Client{Timeout: metadataTimeout},
	}

	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()
	if err := p.probeMetadata(ctx); err != nil {
		log.Warnf("arcgis: metadata probe of %v failed, assuming minimal capabilities: %v", p.url, err)
	}
	if p.objectIDField == "" {
		p.objectIDField = DefaultObjectIDField
	}
	p.name = p.layerName

	return p, nil
}

// layerMetadata is the subset of the layer's ?f=json document we consume.
type layerMetadata struct {
	Name                            string `json:"name"`
	GeometryType                    string `json:"geometryType"`
	ObjectIDField                   string `json:"objectIdField"`
	DisplayField                    string `json:"displayField"`
	SupportedQueryFormats           string `json:"supportedQueryFormats"`
	MaxRecordCount                  int    `json:"maxRecordCount"`
	SupportsCoordinatesQuantization bool   `json:"supportsCoordinatesQuantization"`
	Error                           *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// probeMetadata reads layer capabilities: pbf support, quantization
// support, record count limits and the object-id/display fields.
func (p *Provider) probeMetadata(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?f=json", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetching layer metadata")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("layer metadata request returned status %v", resp.StatusCode)
	}

	var md layerMetadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return errors.Wrap(err, "parsing layer metadata")
	}
	if md.Error != nil {
		return fmt.Errorf("server error: %v", md.Error.Message)
	}

	if !strings.Contains(strings.ToUpper(md.SupportedQueryFormats), "PBF") {
		return ErrNoPBFSupport{URL: p.url, Formats: md.SupportedQueryFormats}
	}

	if md.Name != "" {
		p.name = md.Name
	}
	if p.objectIDField == "" && md.ObjectIDField != "" {
		p.objectIDField = md.ObjectIDField
	}
	p.displayField = md.DisplayField
	p.supportsQuantization = md.SupportsCoordinatesQuantization
	if md.MaxRecordCount > 0 && p.pageSize > md.MaxRecordCount {
		log.Debugf("arcgis: capping page size %v to server maxRecordCount %v", p.pageSize, md.MaxRecordCount)
		p.pageSize = md.MaxRecordCount
	}
	p.geomType = esriGeomType(md.GeometryType)
	return nil
}

func esriGeomType(name string) geom.Geometry {
	switch name {
	case "esriGeometryPoint", "esriGeometryMultipoint":
		return geom.Point{}
	case "esriGeometryPolyline":
		return geom.LineString{}
	case "esriGeometryPolygon":
		return geom.Polygon{}
	}
	return nil
}

// Layers implements provider.Tiler. An arcgis provider serves exactly one
// layer.
func (p *Provider) Layers() ([]provider.LayerInfo, error) {
	return []provider.LayerInfo{
		layer{
			id:       p.layerName,
			name:     p.name,
			geomType: p.geomType,
			srid:     tile.WebMercatorSRID,
		},
	}, nil
}

type layer struct {
	id       string
	name     string
	geomType geom.Geometry
	srid     uint64
}

func (l layer) ID() string              { return l.id }
func (l layer) Name() string            { return l.name }
func (l layer) GeomType() geom.Geometry { return l.geomType }
func (l layer) SRID() uint64            { return l.srid }
