package port

// BridgeRequester issues writes to the bridge. done is called exactly once, on
// the caller's goroutine when the implementation is actor backed.
type BridgeRequester interface {
	Request(method, path string, body map[string]any, done func(error))
}
