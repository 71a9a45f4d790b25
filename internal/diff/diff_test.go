package diff

import (
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/main.js b/main.js
index 1234567..89abcde 100644
--- a/main.js
+++ b/main.js
@@ -1,4 +1,5 @@
 function run() {
-  var x = 1;
+  const x = 1;
+  console.log(x);
   return x;
 }
diff --git a/util.js b/util.js
index 2345678..9abcdef 100644
--- a/util.js
+++ b/util.js
@@ -10,3 +10,4 @@ function helper() {
   doWork();
+  eval(input);
 }
`

func TestChangedLines(t *testing.T) {
	files, err := ChangedLines(sampleDiff)
	if err != nil {
		t.Fatalf("ChangedLines error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}

	main := files[0]
	if main.Path != "main.js" {
		t.Errorf("Path = %q, want main.js", main.Path)
	}
	// 1 context + 2 added + 2 context
	if len(main.Lines) != 5 {
		t.Fatalf("main.js lines = %d, want 5", len(main.Lines))
	}
	if main.Lines[1].Number != 2 || main.Lines[1].Text != "  const x = 1;" || !main.Lines[1].Added {
		t.Errorf("added line mismatch: %+v", main.Lines[1])
	}
	if main.Lines[2].Number != 3 || main.Lines[2].Text != "  console.log(x);" {
		t.Errorf("second added line mismatch: %+v", main.Lines[2])
	}
	if main.Lines[0].Added {
		t.Error("context line flagged as added")
	}

	util := files[1]
	if util.Path != "util.js" {
		t.Errorf("Path = %q, want util.js", util.Path)
	}
	added := util.AddedOnly()
	if len(added) != 1 {
		t.Fatalf("util.js added lines = %d, want 1", len(added))
	}
	if added[0].Number != 11 || added[0].Text != "  eval(input);" {
		t.Errorf("added line = %+v", added[0])
	}
}

func TestChangedLines_DeletedFileSkipped(t *testing.T) {
	d := `diff --git a/gone.js b/gone.js
deleted file mode 100644
--- a/gone.js
+++ /dev/null
@@ -1,2 +0,0 @@
-var a = 1;
-var b = 2;
`
	files, err := ChangedLines(d)
	if err != nil {
		t.Fatalf("ChangedLines error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("deleted file produced %d entries, want 0", len(files))
	}
}

func TestChangedLines_NewFile(t *testing.T) {
	d := `diff --git a/fresh.py b/fresh.py
new file mode 100644
--- /dev/null
+++ b/fresh.py
@@ -0,0 +1,2 @@
+def f():
+    return 1
`
	files, err := ChangedLines(d)
	if err != nil {
		t.Fatalf("ChangedLines error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].Lines[0].Number != 1 || files[0].Lines[1].Number != 2 {
		t.Errorf("line numbering wrong: %+v", files[0].Lines)
	}
}

func TestChangedLines_MalformedHunkHeader(t *testing.T) {
	d := "--- a/x.js\n+++ b/x.js\n@@ busted @@\n+var x;\n"
	if _, err := ChangedLines(d); err == nil {
		t.Error("expected error for malformed hunk header")
	}
}

func TestSnippet(t *testing.T) {
	files, err := ChangedLines(sampleDiff)
	if err != nil {
		t.Fatalf("ChangedLines error: %v", err)
	}
	snip := files[0].Snippet()
	if !strings.Contains(snip, "const x = 1;") {
		t.Errorf("snippet missing added line: %q", snip)
	}
	if strings.Contains(snip, "var x = 1;") {
		t.Errorf("snippet contains deleted line: %q", snip)
	}
}

func TestSnippet_HunkSeparation(t *testing.T) {
	d := `--- a/x.js
+++ b/x.js
@@ -1,1 +1,1 @@
+first();
@@ -10,1 +10,1 @@
+second();
`
	files, err := ChangedLines(d)
	if err != nil {
		t.Fatalf("ChangedLines error: %v", err)
	}
	snip := files[0].Snippet()
	if !strings.Contains(snip, "first();\n\nsecond();") {
		t.Errorf("hunks not separated by blank line: %q", snip)
	}
}
