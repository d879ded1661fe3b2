package outreach

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/fsx"
	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// DraftPrefix marks files managed by this pipeline so cleanup never
// touches manually written drafts in the same directory.
const DraftPrefix = "OUT_"

// SaveDrafts writes each draft as a markdown file under dir, named with
// the run token. Drafts from earlier runs are removed first so the
// directory always reflects exactly one generation.
func SaveDrafts(dir, token string, drafts []model.Draft) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "outreach: create draft dir")
	}

	old, err := filepath.Glob(filepath.Join(dir, DraftPrefix+"*.md"))
	if err != nil {
		return nil, eris.Wrap(err, "outreach: glob old drafts")
	}
	for _, path := range old {
		if err := os.Remove(path); err != nil {
			zap.L().Warn("outreach: failed to remove old draft",
				zap.String("path", path), zap.Error(err))
			continue
		}
		zap.L().Debug("outreach: removed old draft", zap.String("path", path))
	}

	var saved []string
	for _, d := range drafts {
		name := fmt.Sprintf("%s%s_%s.md", DraftPrefix, Slug(d.Company, d.ContactName), token)
		path := filepath.Join(dir, name)
		if err := fsx.WriteFileAtomic(path, []byte(renderDraft(d)), 0o644); err != nil {
			return saved, eris.Wrapf(err, "outreach: write draft %s", name)
		}
		saved = append(saved, path)
	}

	zap.L().Info("outreach: drafts saved", zap.Int("count", len(saved)), zap.String("dir", dir))
	return saved, nil
}

func renderDraft(d model.Draft) string {
	phone := d.Phone
	if phone == "" {
		phone = "-"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Cold Outreach: %s\n", d.Company)
	fmt.Fprintf(&b, "# Generated: %s\n\n", time.Now().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**PROJECT:** %s\n", d.Project)
	fmt.Fprintf(&b, "**TO:** %s <%s>\n", d.ContactName, d.ToEmail)
	fmt.Fprintf(&b, "**PHONE:** %s\n", phone)
	fmt.Fprintf(&b, "**COMPANY ROLE:** %s\n", d.CompanyRole)
	fmt.Fprintf(&b, "**CONTACT ROLE:** %s\n", d.ContactRole)
	fmt.Fprintf(&b, "**FOCUS:** %s\n", d.Focus)
	fmt.Fprintf(&b, "**SCORE:** %.2f\n", d.Score)
	fmt.Fprintf(&b, "**SUBJECT:** %s\n\n", d.Subject)
	b.WriteString("---\n\n")
	b.WriteString(d.Body)
	b.WriteString("\n")
	return b.String()
}

var (
	draftFieldRe = regexp.MustCompile(`(?m)^\*\*([A-Z ]+):\*\* (.*)$`)
	draftToRe    = regexp.MustCompile(`^(.*?)\s*<([^>]+)>$`)
)

// LoadDrafts reads every pipeline draft under dir, highest score first.
// A file that no longer parses is skipped with a warning so one damaged
// draft never blocks a send run.
func LoadDrafts(dir string) ([]model.Draft, error) {
	paths, err := filepath.Glob(filepath.Join(dir, DraftPrefix+"*.md"))
	if err != nil {
		return nil, eris.Wrap(err, "outreach: glob drafts")
	}
	sort.Strings(paths)

	var drafts []model.Draft
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			zap.L().Warn("outreach: unreadable draft skipped",
				zap.String("path", path), zap.Error(err))
			continue
		}
		d, ok := parseDraft(string(data))
		if !ok {
			zap.L().Warn("outreach: malformed draft skipped", zap.String("path", path))
			continue
		}
		d.File = path
		drafts = append(drafts, d)
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].Score > drafts[j].Score
	})
	return drafts, nil
}

func parseDraft(content string) (model.Draft, bool) {
	var d model.Draft
	for _, m := range draftFieldRe.FindAllStringSubmatch(content, -1) {
		value := strings.TrimSpace(m[2])
		switch m[1] {
		case "PROJECT":
			d.Project = value
		case "TO":
			if tm := draftToRe.FindStringSubmatch(value); tm != nil {
				d.ContactName = strings.TrimSpace(tm[1])
				d.ToEmail = strings.ToLower(tm[2])
			}
		case "PHONE":
			if value != "-" {
				d.Phone = value
			}
		case "COMPANY ROLE":
			d.CompanyRole = model.Role(value)
		case "CONTACT ROLE":
			d.ContactRole = value
		case "FOCUS":
			d.Focus = model.Focus(value)
		case "SCORE":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				d.Score = f
			}
		case "SUBJECT":
			d.Subject = value
		}
	}

	if d.ToEmail == "" || d.Subject == "" {
		return model.Draft{}, false
	}

	// Company comes from the title line.
	for line := range strings.Lines(content) {
		if rest, ok := strings.CutPrefix(line, "# Cold Outreach: "); ok {
			d.Company = strings.TrimSpace(rest)
			break
		}
	}

	if _, body, ok := strings.Cut(content, "---\n\n"); ok {
		d.Body = strings.TrimRight(body, "\n")
	}
	if d.Body == "" {
		return model.Draft{}, false
	}
	return d, true
}
