package crawler

import "fmt"

// Policy selects which links of a fetched page become candidates.
type Policy string

const (
	// PolicyScoped follows only the seed page's navigation links, one hop.
	PolicyScoped Policy = "scoped"

	// PolicyUnscoped follows every link on every page, breadth first.
	PolicyUnscoped Policy = "unscoped"
)

// ParsePolicy converts a policy name. An empty name means PolicyScoped.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyScoped:
		return PolicyScoped, nil
	case PolicyUnscoped:
		return PolicyUnscoped, nil
	default:
		return "", fmt.Errorf("unknown crawl policy %q (want %q or %q)", s, PolicyScoped, PolicyUnscoped)
	}
}
