package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// csv column order for CSV and XLSX lead exports. Detail contacts only
// travel in JSON exports.
var leadColumns = []string{
	"project_name", "source_id", "stage", "estimated_value",
	"companies", "address", "detail_url", "construction_start", "construction_end",
}

// LoadLeads reads raw leads from source, which may be a local file path
// or an http(s)/ftp URL ending in .json, .csv, or .xlsx.
func LoadLeads(ctx context.Context, source string) ([]model.RawLead, error) {
	ext := strings.ToLower(filepath.Ext(strippedPath(source)))

	// XLSX needs a seekable file, so remote workbooks are staged locally.
	if ext == ".xlsx" {
		path, cleanup, err := localPath(ctx, source)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		return leadsFromXLSX(ctx, path)
	}

	r, err := openSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	switch ext {
	case ".json":
		return leadsFromJSON(ctx, r)
	case ".csv":
		return leadsFromCSV(ctx, r)
	default:
		return nil, eris.Errorf("fetcher: unsupported lead source %q", source)
	}
}

func strippedPath(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		return u.Path
	}
	return source
}

func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		f := NewHTTPFetcher(HTTPOptions{RateLimiters: DefaultRateLimiters()})
		return f.Download(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		f := NewFTPFetcher(FTPOptions{})
		return f.Download(ctx, source)
	default:
		file, err := os.Open(source)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", source)
		}
		return file, nil
	}
}

// localPath returns a local file path for source, downloading to a temp
// file when the source is remote.
func localPath(ctx context.Context, source string) (string, func(), error) {
	if !strings.Contains(source, "://") {
		return source, func() {}, nil
	}

	tmp, err := os.CreateTemp("", "leads-*.xlsx")
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp file")
	}
	tmp.Close()

	cleanup := func() { os.Remove(tmp.Name()) }
	var dlErr error
	if strings.HasPrefix(source, "ftp://") {
		f := NewFTPFetcher(FTPOptions{})
		_, dlErr = f.DownloadToFile(ctx, source, tmp.Name())
	} else {
		f := NewHTTPFetcher(HTTPOptions{RateLimiters: DefaultRateLimiters()})
		_, dlErr = f.DownloadToFile(ctx, source, tmp.Name())
	}
	if dlErr != nil {
		cleanup()
		return "", nil, dlErr
	}
	return tmp.Name(), cleanup, nil
}

func leadsFromJSON(ctx context.Context, r io.Reader) ([]model.RawLead, error) {
	leadCh, errCh := DecodeJSONArray[model.RawLead](ctx, r)

	var leads []model.RawLead
	for lead := range leadCh {
		leads = append(leads, lead)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "fetcher: decode lead export")
	}
	return leads, nil
}

func leadsFromCSV(ctx context.Context, r io.Reader) ([]model.RawLead, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		TrimSpace:  true,
		LazyQuotes: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "fetcher: read lead csv")
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		// Empty export, no header row was ever produced.
		return nil, nil
	}

	idx := columnIndex(header)
	leads := make([]model.RawLead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, leadFromRow(row, idx))
	}
	return leads, nil
}

func leadsFromXLSX(ctx context.Context, path string) ([]model.RawLead, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamXLSX(ctx, path, XLSXOptions{SkipRows: 1, HeaderCh: headerCh})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "fetcher: read lead workbook")
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		// Empty sheet, no header row was ever produced.
		return nil, nil
	}

	idx := columnIndex(header)
	leads := make([]model.RawLead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, leadFromRow(row, idx))
	}
	return leads, nil
}

// columnIndex maps known column names to their position, tolerating
// reordered exports. Unknown columns are ignored.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	known := make(map[string]bool, len(leadColumns))
	for _, c := range leadColumns {
		known[c] = true
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		name = strings.ReplaceAll(name, " ", "_")
		if known[name] {
			idx[name] = i
		} else {
			zap.L().Debug("ignoring unknown lead column", zap.String("column", name))
		}
	}
	return idx
}

func leadFromRow(row []string, idx map[string]int) model.RawLead {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return model.RawLead{
		ProjectName:       field("project_name"),
		SourceID:          field("source_id"),
		Stage:             field("stage"),
		EstimatedValue:    field("estimated_value"),
		Companies:         field("companies"),
		Address:           field("address"),
		DetailURL:         field("detail_url"),
		ConstructionStart: field("construction_start"),
		ConstructionEnd:   field("construction_end"),
	}
}
