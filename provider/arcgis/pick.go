package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/atlasdatatech/arctile/provider"
	"github.com/atlasdatatech/arctile/tile"
)

// pickRadiusPixels is the screen-space slop around the clicked point.
const pickRadiusPixels = 4

type pickGeometry struct {
	X                float64          `json:"x"`
	Y                float64          `json:"y"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type geoJSONFeatureCollection struct {
	Features []struct {
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// PickFeatures implements provider.Picker. It issues a single point-radius
// query in geographic coordinates, asking for GeoJSON without geometry:
// the caller already renders this data and only wants attributes.
func (p *Provider) PickFeatures(ctx context.Context, lon, lat float64, level uint) ([]provider.FeatureInfo, error) {
	if !p.pickEnabled {
		return nil, nil
	}

	geometry, err := json.Marshal(pickGeometry{
		X:                lon,
		Y:                lat,
		SpatialReference: spatialReference{WKID: 4326},
	})
	if err != nil {
		return nil, err
	}

	radius := pickRadiusPixels * tile.MetersPerPixel(level)

	q := url.Values{}
	q.Set("f", "geojson")
	q.Set("sr", "4326")
	q.Set("geometryType", "esriGeometryPoint")
	q.Set("geometry", string(geometry))
	q.Set("outFields", "*")
	q.Set("returnGeometry", "false")
	q.Set("outSR", "4326")
	q.Set("spatialRel", "esriSpatialRelIntersects")
	q.Set("units", "esriSRUnit_Meter")
	q.Set("distance", strconv.FormatFloat(radius, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/query?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "arcgis: pick query")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arcgis: pick query returned status %v", resp.StatusCode)
	}

	var fc geoJSONFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, errors.Wrap(err, "arcgis: parsing pick response")
	}
	if fc.Error != nil {
		return nil, fmt.Errorf("arcgis: pick query server error: %v", fc.Error.Message)
	}

	infos := make([]provider.FeatureInfo, 0, len(fc.Features))
	for _, f := range fc.Features {
		infos = append(infos, provider.FeatureInfo{
			Name:        p.featureName(f.Properties),
			Description: describeProperties(f.Properties),
			Properties:  f.Properties,
		})
	}
	return infos, nil
}

// featureName derives a display name: the layer's display field when it
// holds a string, then any non-empty string property, then the object id.
func (p *Provider) featureName(props map[string]interface{}) string {
	if s, ok := props[p.displayField].(string); ok && s != "" {
		return s
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := props[k].(string); ok && s != "" {
			return s
		}
	}

	if id, ok := props[p.objectIDField]; ok {
		return fmt.Sprintf("%v %v", p.name, id)
	}
	return p.name
}

// describeProperties renders the attributes as a simple HTML table, keys
// sorted for stable output.
func describeProperties(props map[string]interface{}) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<table>")
	for _, k := range keys {
		fmt.Fprintf(&b, "<tr><th>%v</th><td>%v</td></tr>", k, props[k])
	}
	b.WriteString("</table>")
	return b.String()
}
