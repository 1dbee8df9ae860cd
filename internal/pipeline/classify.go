package pipeline

import "strings"

// Kind is the access classification of a request path.
type Kind int

const (
	KindPublic Kind = iota
	KindAuthRoute
	KindAPIRoute
	KindProtected
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindAuthRoute:
		return "auth_route"
	case KindAPIRoute:
		return "api_route"
	default:
		return "protected"
	}
}

const (
	apiPrefix    = "/api"
	loginPath    = "/login"
	signupPath   = "/signup"
	loginAbsPath = "/login"
)

type pathRule struct {
	prefix string
	exact  bool
	kind   Kind
}

// pathRules is an ordered list; the first match wins. Anything unmatched is
// protected, which is the conservative default for a new page.
var pathRules = []pathRule{
	{prefix: "/", exact: true, kind: KindPublic},
	{prefix: loginPath, kind: KindAuthRoute},
	{prefix: signupPath, kind: KindAuthRoute},
	{prefix: "/auth", kind: KindPublic},
	{prefix: "/share", kind: KindPublic},
	{prefix: "/termos", kind: KindPublic},
	{prefix: "/privacidade", kind: KindPublic},
	{prefix: "/healthz", kind: KindPublic},
	{prefix: "/metrics", kind: KindPublic},
	{prefix: "/dev", kind: KindPublic},
	{prefix: apiPrefix, kind: KindAPIRoute},
}

// Classify maps a path onto the access model. Pure string matching; it
// cannot fail.
func Classify(path string) Kind {
	for _, rule := range pathRules {
		if rule.exact {
			if path == rule.prefix {
				return rule.kind
			}
			continue
		}
		if strings.HasPrefix(path, rule.prefix) {
			return rule.kind
		}
	}
	return KindProtected
}
