package diffio

import (
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/auth.go b/auth.go
index 1111111..2222222 100644
--- a/auth.go
+++ b/auth.go
@@ -1,4 +1,5 @@
 package main

-func login(user string) {
+func login(user, password string) {
+	validate(password)
 }
diff --git a/token.go b/token.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/token.go
@@ -0,0 +1,3 @@
+package main
+
+func token() string { return "" }
diff --git a/legacy.go b/legacy.go
deleted file mode 100644
index 4444444..0000000
--- a/legacy.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package main
-// gone
`

func TestParse(t *testing.T) {
	changes, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("got %d changes, want 3", len(changes))
	}

	t.Run("modified file", func(t *testing.T) {
		c := changes[0]
		if c.File != "auth.go" || c.Status != "modified" {
			t.Errorf("file=%q status=%q", c.File, c.Status)
		}
		if c.Additions != 2 || c.Deletions != 1 {
			t.Errorf("additions=%d deletions=%d, want 2/1", c.Additions, c.Deletions)
		}
		if !strings.Contains(c.Patch, "+func login(user, password string) {") {
			t.Errorf("patch missing added line:\n%s", c.Patch)
		}
		if strings.Contains(c.Patch, "token.go") {
			t.Errorf("patch leaked another file:\n%s", c.Patch)
		}
	})

	t.Run("added file", func(t *testing.T) {
		c := changes[1]
		if c.File != "token.go" || c.Status != "added" {
			t.Errorf("file=%q status=%q", c.File, c.Status)
		}
		if c.Additions != 3 || c.Deletions != 0 {
			t.Errorf("additions=%d deletions=%d, want 3/0", c.Additions, c.Deletions)
		}
	})

	t.Run("removed file", func(t *testing.T) {
		c := changes[2]
		if c.File != "legacy.go" || c.Status != "removed" {
			t.Errorf("file=%q status=%q", c.File, c.Status)
		}
		if c.Deletions != 2 {
			t.Errorf("deletions=%d, want 2", c.Deletions)
		}
	})
}

func TestParseEmpty(t *testing.T) {
	changes, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("got %d changes, want 0", len(changes))
	}
}

func TestSplitPatches(t *testing.T) {
	patches := splitPatches(sampleDiff)
	if len(patches) != 3 {
		t.Fatalf("got %d patches, want 3", len(patches))
	}
	for i, prefix := range []string{
		"diff --git a/auth.go b/auth.go",
		"diff --git a/token.go b/token.go",
		"diff --git a/legacy.go b/legacy.go",
	} {
		if !strings.HasPrefix(patches[i], prefix) {
			t.Errorf("patches[%d] starts with %q", i, strings.SplitN(patches[i], "\n", 2)[0])
		}
	}
}
