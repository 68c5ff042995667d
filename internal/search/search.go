// Package search maintains an Elasticsearch projection of user profiles,
// driven by the domain event stream, and serves the profile search query.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/application"
	"github.com/luminhq/user-service/internal/domain/event"
)

const DefaultIndex = "users"

const requestTimeout = 3 * time.Second

// Projector reindexes a user's profile document whenever one of the
// aggregate's events arrives on the bus. The projection is eventually
// consistent; an indexing failure nacks the event for redelivery.
type Projector struct {
	es      *elasticsearch.Client
	index   string
	service *application.Service
	log     *logrus.Logger
}

func NewProjector(es *elasticsearch.Client, index string, svc *application.Service, log *logrus.Logger) *Projector {
	if index == "" {
		index = DefaultIndex
	}
	return &Projector{es: es, index: index, service: svc, log: log}
}

// projectedEvents lists the event types that change what the index holds.
// Profile views are deliberately absent; they churn constantly and never
// affect search results.
var projectedEvents = []string{
	event.TypeUserCreated,
	event.TypeUserChangedUsername,
	event.TypeUserChangedEmail,
	event.TypeUserChangedBio,
	event.TypeUserChangedAvatarURL,
	event.TypeUserBlocked,
	event.TypeUserActivated,
	event.TypeUserDeactivated,
}

// Subscribe attaches the projector to the event bus.
func (p *Projector) Subscribe(bus event.Bus) error {
	for _, t := range projectedEvents {
		if err := bus.Subscribe(t, p.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	if err := bus.Subscribe(event.TypeUserDeleted, p.handleDeleted); err != nil {
		return fmt.Errorf("subscribe %s: %w", event.TypeUserDeleted, err)
	}
	return nil
}

func (p *Projector) handleDeleted(ctx context.Context, e event.Event) error {
	return p.Remove(ctx, e.AggregateID)
}

func (p *Projector) handle(ctx context.Context, e event.Event) error {
	u, err := p.service.GetUserByID(ctx, e.AggregateID)
	if err != nil {
		return fmt.Errorf("load user %s for indexing: %w", e.AggregateID, err)
	}
	return p.Index(ctx, e.AggregateID, application.NewUserView(u))
}

// Index writes one profile document, keyed by the user id so reindexing
// is idempotent.
func (p *Projector) Index(ctx context.Context, id uuid.UUID, view *application.UserView) error {
	doc := map[string]any{
		"id":         view.UserID,
		"first_name": view.FirstName,
		"last_name":  view.LastName,
		"email":      view.Email,
		"bio":        view.Bio,
		"avatar_url": view.AvatarURL,
		"status":     view.Status,
		"updated_at": view.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: p.index, DocumentID: id.String(), Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, p.es)
	if err != nil {
		p.log.WithError(err).WithField("user_id", id).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		p.log.WithField("status", res.Status()).WithField("user_id", id).Warn("es index response error")
		return fmt.Errorf("index user %s: %s", id, res.Status())
	}
	return nil
}

// Remove drops a user's document, for use after a profile is deleted.
// A missing document is not an error.
func (p *Projector) Remove(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{Index: p.index, DocumentID: id.String()}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, p.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("remove user %s: %s", id, res.Status())
	}
	return nil
}

// Searcher runs the profile search query against the projection.
type Searcher struct {
	es    *elasticsearch.Client
	index string
}

func NewSearcher(es *elasticsearch.Client, index string) *Searcher {
	if index == "" {
		index = DefaultIndex
	}
	return &Searcher{es: es, index: index}
}

// Hit is one search result.
type Hit struct {
	ID     string         `json:"id"`
	Source map[string]any `json:"source"`
}

// Search runs a multi_match over name, email and bio fields.
func (s *Searcher) Search(ctx context.Context, q string, size int) ([]Hit, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"first_name^2", "last_name^2", "email^2", "bio"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := s.es.Search(
		s.es.Search.WithContext(c),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, Hit{ID: h.ID, Source: h.Source})
	}
	return out, nil
}
