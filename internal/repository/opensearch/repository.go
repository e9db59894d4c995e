package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kingrain94/table-qr-api/internal/config"
	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/repository"
)

// unknownTenant buckets scans whose token never verified, so no tenant is known.
const unknownTenant = "unknown"

type scanEventRepository struct {
	client *opensearch.Client
	config *config.OpenSearchConfig
}

func NewScanEventRepository(client *opensearch.Client, config *config.OpenSearchConfig) repository.ScanEventRepository {
	return &scanEventRepository{
		client: client,
		config: config,
	}
}

func (r *scanEventRepository) Index(ctx context.Context, event *domain.ScanEvent) error {
	indexName := r.indexFor(event)
	if err := r.ensureIndex(ctx, indexName); err != nil {
		return fmt.Errorf("failed to ensure index exists: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      indexName,
		DocumentID: event.ID,
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

func (r *scanEventRepository) BulkIndex(ctx context.Context, events []domain.ScanEvent) error {
	if len(events) == 0 {
		return nil
	}

	groups := make(map[string][]domain.ScanEvent)
	for _, event := range events {
		indexName := r.indexFor(&event)
		groups[indexName] = append(groups[indexName], event)
	}

	for indexName, group := range groups {
		if err := r.bulkIndexGroup(ctx, indexName, group); err != nil {
			return fmt.Errorf("failed to bulk index group for index %s: %w", indexName, err)
		}
	}

	return nil
}

func (r *scanEventRepository) bulkIndexGroup(ctx context.Context, indexName string, events []domain.ScanEvent) error {
	if err := r.ensureIndex(ctx, indexName); err != nil {
		return fmt.Errorf("failed to ensure index exists: %w", err)
	}

	var body strings.Builder
	for _, event := range events {
		action := map[string]any{
			"index": map[string]any{
				"_index": indexName,
				"_id":    event.ID,
			},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("failed to marshal action: %w", err)
		}
		body.Write(actionLine)
		body.WriteString("\n")

		docLine, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		body.Write(docLine)
		body.WriteString("\n")
	}

	req := opensearchapi.BulkRequest{
		Body: strings.NewReader(body.String()),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk request failed: %s", res.String())
	}

	return nil
}

func (r *scanEventRepository) indexFor(event *domain.ScanEvent) string {
	tenantID := event.TenantID
	if tenantID == "" {
		tenantID = unknownTenant
	}
	t := event.Timestamp
	if t.IsZero() {
		t = time.Now()
	}
	return r.config.GetIndexName(tenantID, t)
}

func (r *scanEventRepository) ensureIndex(ctx context.Context, indexName string) error {
	exists := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}
	res, err := exists.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	create := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(indexMapping),
	}
	res, err = create.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	// Another worker may have created it between the two calls.
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"tenant_id": { "type": "keyword" },
			"table_id": { "type": "keyword" },
			"token_version": { "type": "long" },
			"outcome": { "type": "keyword" },
			"reason": { "type": "keyword" },
			"client_id": { "type": "keyword" },
			"timestamp": { "type": "date" }
		}
	},
	"settings": {
		"index": {
			"number_of_shards": 1,
			"number_of_replicas": 1,
			"refresh_interval": "5s"
		}
	}
}`
