package gdocai

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ToJSON pretty-prints a value for debugging. Protocol buffer messages such
// as raw Document AI responses go through protojson, everything else through
// encoding/json.
func ToJSON(data any) (string, error) {
	if m, ok := data.(proto.Message); ok {
		b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(m)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
