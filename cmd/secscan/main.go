// Command secscan scans a source tree for hardcoded credentials and
// tracking identifiers that should live in environment variables instead.
// It is run in CI before release builds; a CRITICAL finding fails the build.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

type severity int

const (
	severityMedium severity = iota
	severityHigh
	severityCritical
)

func (s severity) String() string {
	switch s {
	case severityCritical:
		return "CRITICAL"
	case severityHigh:
		return "HIGH"
	default:
		return "MEDIUM"
	}
}

// rule describes one credential pattern. allowedDirs lists path prefixes
// where a match is expected and not reported, such as docs and test fixtures.
type rule struct {
	name        string
	pattern     *regexp.Regexp
	severity    severity
	allowedDirs []string
}

var rules = []rule{
	{
		name:        "JWT token",
		pattern:     regexp.MustCompile(`eyJ[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_.+/=]*`),
		severity:    severityCritical,
		allowedDirs: []string{"docs/"},
	},
	{
		name:        "AWS access key",
		pattern:     regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		severity:    severityCritical,
		allowedDirs: []string{"docs/"},
	},
	{
		name:        "OpenAI API key",
		pattern:     regexp.MustCompile(`sk-[A-Za-z0-9]{20}[A-Za-z0-9-_]*`),
		severity:    severityCritical,
		allowedDirs: []string{"docs/"},
	},
	{
		name:        "Google Analytics ID",
		pattern:     regexp.MustCompile(`G-[A-Z0-9]{10}`),
		severity:    severityMedium,
		allowedDirs: []string{"docs/", "web/templates/"},
	},
	{
		name:        "Google Tag Manager ID",
		pattern:     regexp.MustCompile(`GTM-[A-Z0-9]{7}`),
		severity:    severityMedium,
		allowedDirs: []string{"docs/", "web/templates/"},
	},
	{
		name:        "Hardcoded password",
		pattern:     regexp.MustCompile(`(?i)password\s*[:=]\s*"[^"]+"`),
		severity:    severityHigh,
		allowedDirs: []string{"docs/"},
	},
	{
		name:        "API key assignment",
		pattern:     regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key)\s*[:=]\s*"[^"]+"`),
		severity:    severityHigh,
		allowedDirs: []string{"docs/"},
	},
}

var scanExtensions = map[string]bool{
	".go":   true,
	".html": true,
	".js":   true,
	".css":  true,
	".yml":  true,
	".yaml": true,
	".json": true,
	".sql":  true,
}

var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"data":         true,
	"uploads":      true,
	"vendor":       true,
}

type finding struct {
	file     string
	line     int
	rule     string
	severity severity
	match    string
}

func main() {
	root := flag.String("root", ".", "Directory to scan")
	quiet := flag.Bool("quiet", false, "Only print the summary line")
	flag.Parse()

	findings, err := scanTree(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "secscan: %v\n", err)
		os.Exit(2)
	}

	printReport(findings, *quiet)

	for _, f := range findings {
		if f.severity == severityCritical {
			os.Exit(1)
		}
	}
}

func scanTree(root string) ([]finding, error) {
	var findings []finding

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !scanExtensions[filepath.Ext(path)] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		// Test files legitimately contain fixture passwords and tokens.
		if strings.HasSuffix(rel, "_test.go") || rel == "cmd/secscan/main.go" {
			return nil
		}

		fileFindings, err := scanFile(root, rel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "secscan: skipping %s: %v\n", rel, err)
			return nil
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].severity != findings[j].severity {
			return findings[i].severity > findings[j].severity
		}
		if findings[i].file != findings[j].file {
			return findings[i].file < findings[j].file
		}
		return findings[i].line < findings[j].line
	})
	return findings, nil
}

func scanFile(root, rel string) ([]finding, error) {
	f, err := os.Open(filepath.Join(root, rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var findings []finding
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, r := range rules {
			if allowed(rel, r.allowedDirs) {
				continue
			}
			match := r.pattern.FindString(line)
			if match == "" {
				continue
			}
			findings = append(findings, finding{
				file:     rel,
				line:     lineNo,
				rule:     r.name,
				severity: r.severity,
				match:    truncate(match, 50),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}

func allowed(rel string, dirs []string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(rel, d) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func printReport(findings []finding, quiet bool) {
	counts := map[severity]int{}
	for _, f := range findings {
		counts[f.severity]++
	}

	if len(findings) == 0 {
		fmt.Println("secscan: no hardcoded credentials found")
		return
	}

	if !quiet {
		for _, f := range findings {
			fmt.Printf("%-8s %s:%d  %s  (%s)\n", f.severity, f.file, f.line, f.rule, f.match)
		}
	}
	fmt.Printf("secscan: %d findings (critical: %d, high: %d, medium: %d)\n",
		len(findings), counts[severityCritical], counts[severityHigh], counts[severityMedium])
	if counts[severityCritical] > 0 {
		fmt.Println("secscan: FAILED, critical findings must be resolved")
	}
}
