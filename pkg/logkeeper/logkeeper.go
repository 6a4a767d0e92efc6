// Package logkeeper indexes the widget host's access log and failure entries
// read from Kafka into Elasticsearch.
package logkeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"videocomments/pkg/logger"
	"videocomments/pkg/report"
)

var ErrUnknownEntry = fmt.Errorf("unknown log entry")

type Indexer interface {
	Index(ctx context.Context, index, docID string, body []byte) error
}

type elasticIndexer struct {
	es *elasticsearch.Client
}

// NewElastic returns an Indexer backed by the Elasticsearch nodes.
func NewElastic(nodes []string) (Indexer, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: nodes})
	if err != nil {
		return nil, err
	}

	return &elasticIndexer{es: es}, nil
}

func (i *elasticIndexer) Index(ctx context.Context, index, docID string, body []byte) error {
	res, err := i.es.Index(
		index,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(docID),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index %s: %s", index, res.Status())
	}

	return nil
}

type Keeper struct {
	AccessIndex  string
	FailureIndex string
	NumWorkers   int

	idx Indexer
}

func New(idx Indexer, accessIndex, failureIndex string, numWorkers int) *Keeper {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Keeper{
		AccessIndex:  accessIndex,
		FailureIndex: failureIndex,
		NumWorkers:   numWorkers,
		idx:          idx,
	}
}

// Run indexes messages from jobs with NumWorkers workers until jobs is closed
// or ctx is done.
func (k *Keeper) Run(ctx context.Context, jobs <-chan kafka.Message) {
	var wg sync.WaitGroup
	wg.Add(k.NumWorkers)
	for workerID := 0; workerID < k.NumWorkers; workerID++ {
		go func(id int) {
			defer wg.Done()
			k.worker(ctx, jobs, id)
		}(workerID)
	}
	wg.Wait()
}

func (k *Keeper) worker(ctx context.Context, jobs <-chan kafka.Message, workerID int) {
	for {
		select {
		case <-ctx.Done():
			log.Infof("[logkeeper][workerID:%d] context cancelled, exiting worker", workerID)
			return

		case msg, ok := <-jobs:
			if !ok {
				log.Infof("[logkeeper][workerID:%d] jobs channel closed, exiting worker", workerID)
				return
			}
			log.Debugf("[logkeeper][workerID:%d] received message: %s", workerID, string(msg.Value))

			index, docID, err := k.Route(msg.Value)
			if err != nil {
				log.Errorf("[logkeeper][workerID:%d] failed to route log entry: %v", workerID, err)
				continue
			}

			if err := k.idx.Index(ctx, index, docID, msg.Value); err != nil {
				log.Errorf("[logkeeper][workerID:%d] failed to index document: %v", workerID, err)
				continue
			}
			log.Infof("[logkeeper][workerID:%d][%s] log entry indexed in %s", workerID, shorten(docID), index)
		}
	}
}

// Route picks the index and the document ID of an entry. Access entries are
// keyed by service and request ID, failure entries by service, operation,
// video and time.
func (k *Keeper) Route(value []byte) (index, docID string, err error) {
	var probe struct {
		RequestID string `json:"request_id"`
		Op        string `json:"op"`
	}
	if err := json.Unmarshal(value, &probe); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal log entry: %w", err)
	}

	switch {
	case probe.Op != "":
		var entry report.FailureEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return "", "", fmt.Errorf("failed to unmarshal failure entry: %w", err)
		}
		return k.FailureIndex, entry.Service + entry.Op + entry.VideoID + strconv.FormatInt(entry.Timestamp.UnixNano(), 10), nil

	case probe.RequestID != "":
		var entry logger.Entry
		if err := json.Unmarshal(value, &entry); err != nil {
			return "", "", fmt.Errorf("failed to unmarshal access entry: %w", err)
		}
		return k.AccessIndex, entry.Service + entry.RequestID, nil
	}

	return "", "", ErrUnknownEntry
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
