package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"ldap2moodle/core/model"

	goldap "github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
)

// GeneralizedTimeLayout formats watermarks for timestamp filters.
const GeneralizedTimeLayout = "20060102150405Z"

// Searcher is the part of an LDAP connection used by Reader.
type Searcher interface {
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	Close() error
}

// Dialer opens a bound connection.
type Dialer func(ctx context.Context, cfg Config) (Searcher, error)

// Option configures a Reader.
type Option func(*Reader)

// WithDialer replaces the network dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(r *Reader) { r.dial = d }
}

// Reader reads user entries from the directory.
// Every call opens its own connection and closes it before returning.
type Reader struct {
	cfg    Config
	dial   Dialer
	logger *zap.Logger
}

// NewReader creates a Reader.
func NewReader(cfg Config, logger *zap.Logger, opts ...Option) *Reader {
	if cfg.UserIDAttribute == "" {
		cfg.UserIDAttribute = "uid"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.Filter == "" {
		cfg.Filter = "(objectClass=*)"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reader{cfg: cfg, dial: Dial, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListIdentifiers returns the normalized login of every entry matching the
// configured filter. Only the identifier attribute is requested.
func (r *Reader) ListIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	total, err := r.search(ctx, r.cfg.Filter, []string{r.cfg.UserIDAttribute}, func(rec model.SourceRecord) {
		ids[rec.ID] = struct{}{}
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Read directory identifiers", zap.Int("entries", total), zap.Int("identifiers", len(ids)))
	return ids, nil
}

// ListRecords returns entries modified at or after since, or all entries
// when since is zero, in the order the server returned them.
func (r *Reader) ListRecords(ctx context.Context, since time.Time) (*model.SourceIndex, error) {
	idx := model.NewSourceIndex()
	total, err := r.search(ctx, r.deltaFilter(since), r.cfg.Attributes, func(rec model.SourceRecord) {
		if idx.Put(rec) {
			r.logger.Warn("Duplicate directory identifier, last entry wins",
				zap.String("id", rec.ID),
				zap.String("dn", rec.DN),
			)
		}
	})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		r.logger.Info("No entries to synchronize found")
	} else {
		r.logger.Info("Read directory entries", zap.Int("entries", total), zap.Int("records", idx.Len()))
	}
	return idx, nil
}

// Lookup returns the entry of a single login.
func (r *Reader) Lookup(ctx context.Context, login string) (model.SourceRecord, bool, error) {
	filter := fmt.Sprintf("(&%s(%s=%s))", r.cfg.Filter, r.cfg.UserIDAttribute, goldap.EscapeFilter(strings.TrimSpace(login)))

	var (
		found model.SourceRecord
		ok    bool
	)
	_, err := r.search(ctx, filter, r.cfg.Attributes, func(rec model.SourceRecord) {
		if !ok {
			found, ok = rec, true
		}
	})
	return found, ok, err
}

func (r *Reader) deltaFilter(since time.Time) string {
	if since.IsZero() || r.cfg.TimestampAttribute == "" {
		return r.cfg.Filter
	}
	return fmt.Sprintf("(&%s(%s>=%s))", r.cfg.Filter, r.cfg.TimestampAttribute, since.UTC().Format(GeneralizedTimeLayout))
}

// search runs a paged search and hands every entry with an identifier to fn.
// It returns the number of entries the server delivered.
func (r *Reader) search(ctx context.Context, filter string, attrs []string, fn func(model.SourceRecord)) (int, error) {
	scope, err := parseScope(r.cfg.Scope)
	if err != nil {
		return 0, err
	}

	conn, err := r.dial(ctx, r.cfg)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.logger.Debug("Failed to close directory connection", zap.Error(cerr))
		}
	}()

	r.logger.Debug("Searching directory",
		zap.String("base_dn", r.cfg.BaseDN),
		zap.String("filter", filter),
		zap.Strings("attributes", attrs),
	)

	req := goldap.NewSearchRequest(
		r.cfg.BaseDN, scope, goldap.NeverDerefAliases,
		0, 0, false, filter, attrs, nil,
	)
	pagingControl := goldap.NewControlPaging(uint32(r.cfg.PageSize))
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		req.Controls = []goldap.Control{pagingControl}
		resp, err := conn.Search(req)
		if err != nil {
			return total, fmt.Errorf("directory search failed: %w", err)
		}

		for _, entry := range resp.Entries {
			total++
			id := entry.GetEqualFoldAttributeValue(r.cfg.UserIDAttribute)
			if strings.TrimSpace(id) == "" {
				r.logger.Error("Identifier attribute missing in directory entry",
					zap.String("attribute", r.cfg.UserIDAttribute),
					zap.String("dn", entry.DN),
				)
				continue
			}
			fn(toRecord(id, entry))
		}

		ctrl, ok := goldap.FindControl(resp.Controls, goldap.ControlTypePaging).(*goldap.ControlPaging)
		if !ok || len(ctrl.Cookie) == 0 {
			return total, nil
		}
		pagingControl.SetCookie(ctrl.Cookie)
	}
}

func toRecord(id string, entry *goldap.Entry) model.SourceRecord {
	rec := model.NewSourceRecord(id, entry.DN)
	for _, attr := range entry.Attributes {
		rec.Add(attr.Name, attr.Values...)
	}
	return rec
}

func parseScope(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base":
		return goldap.ScopeBaseObject, nil
	case "one", "single", "onelevel":
		return goldap.ScopeSingleLevel, nil
	case "", "sub", "subtree":
		return goldap.ScopeWholeSubtree, nil
	default:
		return 0, fmt.Errorf("unknown search scope %q", s)
	}
}

// Dial connects to cfg.URL and binds with the configured credentials.
func Dial(ctx context.Context, cfg Config) (Searcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []goldap.DialOpt{goldap.DialWithDialer(&net.Dialer{Timeout: timeout})}
	if cfg.TrustAllCertificates {
		opts = append(opts, goldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: true})) //nolint:gosec // opt-in switch
	}

	conn, err := goldap.DialURL(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial directory: %w", err)
	}
	conn.SetTimeout(timeout)

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to bind: %w", err)
		}
	}
	return &connSearcher{conn: conn}, nil
}

type connSearcher struct {
	conn *goldap.Conn
}

func (c *connSearcher) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	return c.conn.Search(req)
}

func (c *connSearcher) Close() error {
	c.conn.Close()
	return nil
}
