package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/scoring"
	"hirelens-backend/internal/shared/auth"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>jane.doe@example.com</w:t></w:r></w:p>
<w:p><w:r><w:t>Senior engineer with 6 years experience in Python and Docker.</w:t></w:r></w:p>
<w:p><w:r><w:t>Master of Science in Computer Science</w:t></w:r></w:p>
</w:body></w:document>`

func writeDOCX(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	path := filepath.Join(t.TempDir(), "jane.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommandPrintsFieldSet(t *testing.T) {
	out, err := runCLI(t, "parse", writeDOCX(t))
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	var fs fields.FieldSet
	if err := json.Unmarshal([]byte(out), &fs); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if fs.Email == nil || *fs.Email != "jane.doe@example.com" {
		t.Fatalf("unexpected email %v", fs.Email)
	}
	if fs.ExperienceYears != 6 || fs.EducationLevel != fields.EducationMasters {
		t.Fatalf("unexpected fields %+v", fs)
	}
}

func TestScoreCommandUsesRuleModel(t *testing.T) {
	out, err := runCLI(t, "score", writeDOCX(t), "--skills", "Python,Docker", "--experience", "5 years", "--education", "Bachelors")
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
	var res scoring.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.Strategy != scoring.StrategyRule || res.Score != 90 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.MissingSkills) != 0 {
		t.Fatalf("expected no missing skills, got %v", res.MissingSkills)
	}
}

func TestParseCommandRejectsUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := runCLI(t, "parse", path); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "hirelensctl version:") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := runCLI(t, "token", "recruiter-3", "--email", "r3@example.com", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token: %v\n%s", err, out)
	}
	keys, _ := auth.NewKeys("cli-secret", true)
	claims, err := keys.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	if claims.Sub != "recruiter-3" || claims.Email != "r3@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
