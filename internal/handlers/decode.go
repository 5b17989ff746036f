package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// decodeOptional decodes a JSON body that callers may omit entirely.
func decodeOptional(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
