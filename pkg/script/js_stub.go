//go:build !js_eval

package script

// NewJS is unavailable without the js_eval build tag and returns nil.
func NewJS(opts ...JSOption) Evaluator {
	_ = applyJSOptions(opts)
	return nil
}

func jsEngineName(Evaluator) string {
	return ""
}
