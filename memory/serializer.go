package memory

import "encoding/json"

// Serializer converts state to and from bytes for database-backed savers.
type Serializer[S any] interface {
	Marshal(state S) ([]byte, error)
	Unmarshal(data []byte) (S, error)
}

// JSONSerializer is the default Serializer, using encoding/json.
type JSONSerializer[S any] struct{}

// Marshal encodes state as JSON.
func (JSONSerializer[S]) Marshal(state S) ([]byte, error) {
	return json.Marshal(state)
}

// Unmarshal decodes state from JSON.
func (JSONSerializer[S]) Unmarshal(data []byte) (S, error) {
	var state S
	err := json.Unmarshal(data, &state)
	return state, err
}
