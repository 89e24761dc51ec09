// Package github implements the issue-tracker backend. It retrieves issues
// or pull requests from a GitHub repository through the REST API and emits
// one item per record.
package github

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/fetchgo/internal/ctxlog"
	"github.com/vk/fetchgo/internal/item"
	"github.com/vk/fetchgo/internal/registry"
)

// Name is the backend's canonical identifier.
const Name = "github"

const defaultAPIURL = "https://api.github.com"

// perPage is the API's maximum page size.
const perPage = 100

// httpClient is shared across executions to reuse TCP connections.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the backend with the launcher's registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Descriptor{
		Name:    Name,
		Summary: "Fetch issues or pull requests from a GitHub repository.",
		New:     New,
	})
}

// Settings is the schema of the optional `backend "github"` profile block.
type Settings struct {
	// APIURL points at a GitHub Enterprise endpoint. Defaults to github.com.
	APIURL string `hcl:"api_url,optional"`

	// Token authenticates API requests. The --token flag wins over it.
	Token string `hcl:"token,optional"`
}

// Backend fetches issues or pull requests from one repository.
type Backend struct {
	owner    string
	repo     string
	category string
	limit    int
	token    string
	apiURL   string
	out      io.Writer
}

// New constructs the backend from the forwarded arguments.
func New(p registry.Params) (registry.Runner, error) {
	var settings Settings
	if p.Settings != nil {
		if diags := gohcl.DecodeBody(p.Settings, p.EvalCtx, &settings); diags.HasErrors() {
			return nil, fmt.Errorf("invalid github profile: %w", diags)
		}
	}

	flagSet := flag.NewFlagSet(Name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	owner := flagSet.String("owner", "", "Repository owner (user or organization).")
	repo := flagSet.String("repo", "", "Repository name.")
	category := flagSet.String("category", "issue", "Record category to fetch: 'issue' or 'pull'.")
	token := flagSet.String("token", "", "API token. Falls back to the profile, then GITHUB_TOKEN.")
	limit := flagSet.Int("limit", 0, "Maximum number of records to fetch. 0 means all.")
	apiURL := flagSet.String("api-url", "", "Base API URL. Falls back to the profile, then api.github.com.")
	if err := flagSet.Parse(p.Args); err != nil {
		return nil, fmt.Errorf("github backend: %w", err)
	}

	if *owner == "" || *repo == "" {
		return nil, fmt.Errorf("github backend requires --owner and --repo")
	}
	if *category != "issue" && *category != "pull" {
		return nil, fmt.Errorf("github backend: invalid --category '%s': must be 'issue' or 'pull'", *category)
	}

	resolvedToken := *token
	if resolvedToken == "" {
		resolvedToken = settings.Token
	}
	if resolvedToken == "" {
		resolvedToken = os.Getenv("GITHUB_TOKEN")
	}

	resolvedAPI := *apiURL
	if resolvedAPI == "" {
		resolvedAPI = settings.APIURL
	}
	if resolvedAPI == "" {
		resolvedAPI = defaultAPIURL
	}

	return &Backend{
		owner:    *owner,
		repo:     *repo,
		category: *category,
		limit:    *limit,
		token:    resolvedToken,
		apiURL:   resolvedAPI,
		out:      p.Out,
	}, nil
}

// Run pages through the repository's records and emits them in API order.
func (b *Backend) Run(ctx context.Context) error {
	origin := fmt.Sprintf("%s/%s", b.owner, b.repo)
	logger := ctxlog.FromContext(ctx).With("backend", Name, "repository", origin, "category", b.category)
	logger.Info("Fetching records.", "limit", b.limit)

	emitter := item.NewEmitter(b.out)
	for page := 1; ; page++ {
		records, err := b.fetchPage(ctx, page)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			break
		}
		logger.Debug("Fetched page.", "page", page, "records", len(records))

		for _, record := range records {
			it := &item.Item{
				ID:          item.NewID(Name, b.category, origin, recordKey(record)),
				Backend:     Name,
				Category:    b.category,
				Origin:      origin,
				RetrievedAt: time.Now().UTC(),
				Data:        record,
			}
			if err := emitter.Emit(it); err != nil {
				return fmt.Errorf("failed to emit record: %w", err)
			}
			if b.limit > 0 && emitter.Count() >= b.limit {
				logger.Info("Record limit reached.", "records", emitter.Count())
				return nil
			}
		}
		if len(records) < perPage {
			break
		}
	}

	logger.Info("Records fetched.", "records", emitter.Count())
	return nil
}

// fetchPage retrieves one page of issues or pull requests.
func (b *Backend) fetchPage(ctx context.Context, page int) ([]map[string]any, error) {
	resource := "issues"
	if b.category == "pull" {
		resource = "pulls"
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/%s", b.apiURL, url.PathEscape(b.owner), url.PathEscape(b.repo), resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	query := req.URL.Query()
	query.Set("state", "all")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Accept", "application/vnd.github+json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API request for %s returned %s: %s", req.URL.Path, resp.Status, string(body))
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}
	return records, nil
}

// recordKey picks the stable identifier for deterministic item IDs.
func recordKey(record map[string]any) string {
	if u, ok := record["html_url"].(string); ok && u != "" {
		return u
	}
	if n, ok := record["number"].(float64); ok {
		return strconv.Itoa(int(n))
	}
	raw, _ := json.Marshal(record)
	return string(raw)
}
