package pipeline

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"/", KindPublic},
		{"/login", KindAuthRoute},
		{"/login/ajuda", KindAuthRoute},
		{"/signup", KindAuthRoute},
		{"/auth/callback", KindPublic},
		{"/share/abc123", KindPublic},
		{"/termos", KindPublic},
		{"/privacidade", KindPublic},
		{"/healthz", KindPublic},
		{"/metrics", KindPublic},
		{"/dev/preview", KindPublic},
		{"/api/warranties", KindAPIRoute},
		{"/api/checkout", KindAPIRoute},
		{"/dashboard", KindProtected},
		{"/notas/123", KindProtected},
		{"/qualquer-coisa", KindProtected},
		{"", KindProtected},
	}
	for _, tc := range cases {
		if got := Classify(tc.path); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}
