package router

import "testing"

func TestLiteralPattern(t *testing.T) {
	p := MustCompile("/users", "")

	if _, ok := p.Match("/users"); !ok {
		t.Fatal("exact path did not match")
	}
	if _, ok := p.Match("/users/42"); ok {
		t.Error("partial match must not succeed")
	}
	if _, ok := p.Match("/user"); ok {
		t.Error("prefix of the pattern must not match")
	}
}

func TestVariablePattern(t *testing.T) {
	p := MustCompile("/users/:id", "")

	vars, ok := p.Match("/users/42")
	if !ok {
		t.Fatal("variable path did not match")
	}
	if vars["id"] != "42" {
		t.Errorf("vars[id] = %q, want 42", vars["id"])
	}

	if _, ok := p.Match("/users"); ok {
		t.Error("missing segment must not match")
	}
	if _, ok := p.Match("/users/42/posts"); ok {
		t.Error("extra segment must not match")
	}
	if _, ok := p.Match("/users/4 2"); ok {
		t.Error("non-word characters must not match a variable")
	}
}

func TestMultipleVariables(t *testing.T) {
	p := MustCompile("/orgs/:org/repos/:repo", "")

	vars, ok := p.Match("/orgs/acme/repos/widgets")
	if !ok {
		t.Fatal("path did not match")
	}
	if vars["org"] != "acme" || vars["repo"] != "widgets" {
		t.Errorf("vars = %v", vars)
	}
}

func TestOneCharPattern(t *testing.T) {
	p := MustCompile("/", "")

	if _, ok := p.Match("/"); !ok {
		t.Fatal("root pattern did not match /")
	}
	if _, ok := p.Match("/x"); ok {
		t.Error("root pattern matched a longer path")
	}
}

func TestEmptySegmentsSkipped(t *testing.T) {
	p := MustCompile("//users//:id/", "")

	vars, ok := p.Match("/users/7")
	if !ok {
		t.Fatal("normalized pattern did not match")
	}
	if vars["id"] != "7" {
		t.Errorf("vars[id] = %q", vars["id"])
	}
}

func TestCustomPrefix(t *testing.T) {
	p := MustCompile("/files/$name", "$")

	vars, ok := p.Match("/files/report")
	if !ok {
		t.Fatal("custom prefix pattern did not match")
	}
	if vars["name"] != "report" {
		t.Errorf("vars[name] = %q", vars["name"])
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	tbl := NewTable()
	tbl.Add("/users/:id", "byID")
	tbl.Add("/users/admin", "admin")

	route, vars, ok := tbl.Lookup("/users/admin")
	if !ok {
		t.Fatal("lookup failed")
	}
	if route.Handler != "byID" {
		t.Errorf("handler = %v, want the earlier route", route.Handler)
	}
	if vars["id"] != "admin" {
		t.Errorf("vars[id] = %q", vars["id"])
	}
}

func TestTableNoMatch(t *testing.T) {
	tbl := NewTable()
	tbl.Add("/users/:id", "h")

	if _, _, ok := tbl.Lookup("/posts/1"); ok {
		t.Fatal("lookup matched an unregistered path")
	}
}

func BenchmarkMatch(b *testing.B) {
	p := MustCompile("/api/users/:id/posts/:post", "")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, ok := p.Match("/api/users/42/posts/7"); !ok {
			b.Fatal("no match")
		}
	}
}
