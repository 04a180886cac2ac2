package ingestion

import (
	"bytes"
	"encoding/json"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
)

// DecodePayload inspects the top-level keys of raw and routes it to the matching adapter:
// "Metadata" selects the legacy shape, "project_code" the dual-identity shape.
func DecodePayload(raw []byte) (Command, error) {
	const op = "ingestion.DecodePayload"
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Command{}, failure.Validation(op, "body is not a JSON object: %v", err)
	}

	switch {
	case top["Metadata"] != nil:
		var p LegacyPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return Command{}, failure.Validation(op, "malformed legacy payload: %v", err)
		}
		return p.Command()
	case top["project_code"] != nil:
		var p DualPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return Command{}, failure.Validation(op, "malformed dual-identity payload: %v", err)
		}
		return p.Command()
	default:
		return Command{}, failure.Validation(op, "payload must carry either Metadata or project_code")
	}
}
