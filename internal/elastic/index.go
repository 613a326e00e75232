package elastic

import (
	"bytes"
	"context"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
)

const (
	IdxLakes     = "lakes_v1"
	IdxReports   = "reports_v1"
	IdxAwareness = "awareness_v1"
)

var mappings = []struct {
	index, body string
}{
	{IdxLakes, `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"name":{"type":"text"},"status":{"type":"keyword"},"location":{"type":"geo_point"},
		"description":{"type":"text"},"region":{"type":"keyword"},"updated_at":{"type":"date"}
	}}}`},
	{IdxReports, `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"lake_id":{"type":"keyword"},"user_id":{"type":"keyword"},"user_name":{"type":"keyword"},
		"description":{"type":"text"},"status":{"type":"keyword"},"has_media":{"type":"boolean"},
		"created_at":{"type":"date"}
	}}}`},
	{IdxAwareness, `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"title":{"type":"text"},"content":{"type":"text"},"author_name":{"type":"keyword"},
		"is_published":{"type":"boolean"},"created_at":{"type":"date"}
	}}}`},
}

func EnsureIndexes(ctx context.Context, c *es.Client) error {
	for _, m := range mappings {
		if err := ensure(ctx, c, m.index, m.body); err != nil {
			return err
		}
	}
	return nil
}

func ensure(ctx context.Context, c *es.Client, index, body string) error {
	exists, err := c.Indices.Exists([]string{index}, c.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	if exists.Body != nil {
		exists.Body.Close()
	}
	if exists.StatusCode == 200 {
		return nil
	}
	res, err := c.Indices.Create(index, c.Indices.Create.WithBody(bytes.NewBufferString(body)), c.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
