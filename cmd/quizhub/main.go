// Quizhub aggregates test series from many third-party quiz providers.
//
// It runs a CORS-enabled proxy gateway that fetches only allowlisted
// provider URLs, and a catalog client that normalizes each provider's
// payloads into one schema.
//
// Usage:
//
//	# Start the gateway and the JSON API
//	quizhub serve --config config.yaml
//
//	# List providers and every provider's series
//	quizhub providers
//	quizhub series --price free --sort tests
//
//	# Drill down and print a quiz
//	quizhub subjects https://api.example.classx.co.in/ 42
//	quizhub titles https://api.example.classx.co.in/ 42 7
//	quizhub quiz https://testseries-assets.classx.co.in/q/123.json
package main

func main() {
	Execute()
}
