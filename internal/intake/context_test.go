package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/chatrouter/store"
)

func TestBuildContextWindowEscapesAndExcludesAssistant(t *testing.T) {
	messages := []*store.Message{
		{SenderName: "alice", Content: "hi <there> & \"friends\"", Timestamp: 1000},
		{SenderName: "bot", Content: "should be excluded", Timestamp: 1500, FromAssistant: true},
		{SenderName: "bob", Content: "hello", Timestamp: 2000},
	}

	got := BuildContextWindow(messages)

	assert.Contains(t, got, "<messages>")
	assert.Contains(t, got, `<message sender="alice" time="1000">`)
	assert.Contains(t, got, "hi &lt;there&gt; &amp; &#34;friends&#34;")
	assert.NotContains(t, got, "should be excluded")
	assert.Contains(t, got, `<message sender="bob" time="2000">hello</message>`)
}

func TestBuildKnowledgeBaseBlockEmpty(t *testing.T) {
	assert.Equal(t, "", BuildKnowledgeBaseBlock(nil))
}

func TestBuildKnowledgeBaseBlockRenders(t *testing.T) {
	hits := []KBSearchHit{
		{SourceID: "kb-1", Title: "Doc A", Content: "some content"},
	}
	got := BuildKnowledgeBaseBlock(hits)
	assert.Contains(t, got, "<knowledge_base>")
	assert.Contains(t, got, `<source title="Doc A">some content</source>`)
}
