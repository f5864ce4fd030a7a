package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRecords(t *testing.T, recCh <-chan Record, errCh <-chan error) ([]Record, error) {
	t.Helper()
	var recs []Record
	for rec := range recCh {
		recs = append(recs, rec)
	}
	for err := range errCh {
		if err != nil {
			return recs, err
		}
	}
	return recs, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "input_name,Ticker,cik\nAcme Inc.,ACME,0000123456\nBeta,,\n"
	recs, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{}))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme Inc.", recs[0].Get("input_name"))
	assert.Equal(t, "ACME", recs[0].Get("ticker"))
	assert.Equal(t, "0000123456", recs[0].Get("CIK"))
	assert.Equal(t, "", recs[1].Get("ticker"))
}

func TestStreamCSV_BOM(t *testing.T) {
	input := "\xEF\xBB\xBFinput_name,ticker\nAcme,ACME\n"
	recs, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{}))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Acme", recs[0].Get("input_name"))
}

func TestStreamCSV_ShortRow(t *testing.T) {
	input := "a,b,c\n1\n"
	recs, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{}))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].Get("a"))
	assert.Equal(t, "", recs[0].Get("c"))
}

func TestStreamCSV_QuotedList(t *testing.T) {
	input := "name,name_variants\nAcme,\"['Acme Inc.', \"\"Acme\"\"]\"\n"
	recs, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{}))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, `['Acme Inc.', "Acme"]`, recs[0].Get("name_variants"))
}

func TestStreamCSV_TrimSpaceAndComment(t *testing.T) {
	input := "a , b\n# skipped\n  x ,  y  \n"
	recs, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		TrimSpace: true,
		Comment:   '#',
	}))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "x", recs[0]["a"])
	assert.Equal(t, "y", recs[0]["b"])
}

func TestStreamCSV_Empty(t *testing.T) {
	_, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader(""), CSVOptions{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")
}

func TestStreamCSV_HeaderOnly(t *testing.T) {
	recs, err := collectRecords(t, StreamCSV(context.Background(), strings.NewReader("a,b\n"), CSVOptions{}))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStreamCSV_ContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collectRecords(t, StreamCSV(ctx, strings.NewReader("a\n1\n"), CSVOptions{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestStreamCSV_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("a\n")
	for range 1000 {
		sb.WriteString("x\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	recCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})

	<-recCh
	cancel()
	// Drain so the goroutine can observe cancellation.
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-recCh:
			if !ok {
				err := <-errCh
				require.Error(t, err)
				return
			}
		case <-timeout:
			t.Fatal("stream did not stop after cancel")
		}
	}
}
