package blacket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/EgorLis/trtl/pkg/request"
)

// ErrProtocol — тело ответа не JSON-объект.
var ErrProtocol = errors.New("blacket: unexpected response body")

// Result — разобранное тело ответа как есть. Неуспешные ответы ({"error":true}
// и не-2xx с JSON-телом) тоже приходят сюда, а не ошибкой.
type Result map[string]any

// Failed — сервер вернул error: true.
func (r Result) Failed() bool {
	v, _ := r["error"].(bool)
	return v
}

func (r Result) Reason() string {
	s, _ := r["reason"].(string)
	return s
}

// Decode раскладывает результат в структуру по json-тегам.
// Числа и строки приводятся друг к другу (id бывает и тем, и другим).
func (r Result) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return fmt.Errorf("blacket: decode result: %w", err)
	}
	return nil
}

func parseResult(resp *request.Response) (Result, error) {
	var r Result
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, fmt.Errorf("%w (status %d): %v", ErrProtocol, resp.StatusCode, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w (status %d): null", ErrProtocol, resp.StatusCode)
	}
	return r, nil
}
