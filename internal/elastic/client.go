package elastic

import (
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
)

func Connect(url string) (*es.Client, error) {
	cfg := es.Config{
		Addresses: []string{url},
	}
	client, err := es.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	return client, nil
}
