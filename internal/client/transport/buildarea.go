package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNoBuildArea is returned when the server has no build area set.
var ErrNoBuildArea = errors.New("no build area set")

// BuildArea is the area set in-world with /setbuildarea, in global
// coordinates. Upper bounds are as sent by the server.
type BuildArea struct {
	XFrom int `json:"xFrom"`
	YFrom int `json:"yFrom"`
	ZFrom int `json:"zFrom"`
	XTo   int `json:"xTo"`
	YTo   int `json:"yTo"`
	ZTo   int `json:"zTo"`
}

const buildAreaSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "oneOf": [
    {"const": -1},
    {
      "type": "object",
      "required": ["xFrom", "yFrom", "zFrom", "xTo", "yTo", "zTo"],
      "properties": {
        "xFrom": {"type": "integer"},
        "yFrom": {"type": "integer"},
        "zFrom": {"type": "integer"},
        "xTo":   {"type": "integer"},
        "yTo":   {"type": "integer"},
        "zTo":   {"type": "integer"}
      }
    }
  ]
}`

var buildAreaValidator = jsonschema.MustCompileString("buildarea.schema.json", buildAreaSchema)

// BuildArea returns the server's build area, or ErrNoBuildArea.
func (c *Client) BuildArea(ctx context.Context) (BuildArea, error) {
	data, err := c.do(ctx, http.MethodGet, "/buildarea", nil, nil, nil)
	if err != nil {
		return BuildArea{}, err
	}
	return parseBuildArea(data)
}

func parseBuildArea(data []byte) (BuildArea, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return BuildArea{}, fmt.Errorf("%w: %w: decode build area: %w", ErrTransport, ErrBadResponse, err)
	}
	if err := buildAreaValidator.Validate(doc); err != nil {
		return BuildArea{}, fmt.Errorf("%w: %w: invalid build area: %w", ErrTransport, ErrBadResponse, err)
	}
	if _, ok := doc.(json.Number); ok {
		return BuildArea{}, ErrNoBuildArea
	}

	var area BuildArea
	if err := json.Unmarshal(data, &area); err != nil {
		return BuildArea{}, fmt.Errorf("%w: %w: decode build area: %w", ErrTransport, ErrBadResponse, err)
	}
	return area, nil
}
