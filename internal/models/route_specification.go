package models

// RouteSpecification is the comparable shape of one operation.
// It is built fresh for every comparison and never modified afterwards.
type RouteSpecification struct {
	QueryParameters       []string
	ResponseBody          map[string]any
	AllowedHeaders        []string
	AuthenticationMethods [][]string
}
