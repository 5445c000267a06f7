package todo

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"

	maxBodyBytes = 1 << 20
)

// cborEnc usa Core Deterministic Encoding: mesmo dado, mesmos bytes.
var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("todo: CBOR encoder initialization failed: " + err.Error())
	}
}

func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == contentTypeCBOR {
			return true
		}
	}
	return false
}

func writeBody(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if wantsCBOR(r) {
		data, err := cborEnc.Marshal(v)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", contentTypeCBOR)
		w.WriteHeader(status)
		_, err = w.Write(data)
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

// decodeBody aceita JSON (padrão) ou CBOR conforme o Content-Type.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := io.Reader(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == contentTypeCBOR {
		return cbor.NewDecoder(body).Decode(v)
	}
	return json.NewDecoder(body).Decode(v)
}
