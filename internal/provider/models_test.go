package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModel struct{ name string }

func (m echoModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("no deadline")
	}
	return schema.AssistantMessage(m.name+": "+input[len(input)-1].Content, nil), nil
}

func TestChatModelsBuildsOncePerModel(t *testing.T) {
	var (
		mu     sync.Mutex
		builds []string
	)
	cm := NewChatModels(Qwen, BaseConfig{DefaultModel: "qwen-plus", Timeout: time.Second},
		func(_ context.Context, name string) (Generator, error) {
			mu.Lock()
			builds = append(builds, name)
			mu.Unlock()
			return echoModel{name: name}, nil
		})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cm.Generate(context.Background(), "", []*schema.Message{schema.UserMessage("hi")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	resp, err := cm.Generate(context.Background(), "qwen-max", []*schema.Message{schema.UserMessage("yo")})
	require.NoError(t, err)
	assert.Equal(t, "qwen-max: yo", resp.Content)
	assert.Equal(t, []string{"qwen-plus", "qwen-max"}, builds)
	assert.Equal(t, 2, cm.Cached())
}

func TestChatModelsBuildErrorIsNotCached(t *testing.T) {
	fail := true
	cm := NewChatModels(Ollama, BaseConfig{DefaultModel: "llama3.1", Timeout: time.Second},
		func(_ context.Context, name string) (Generator, error) {
			if fail {
				return nil, errors.New("dial refused")
			}
			return echoModel{name: name}, nil
		})

	_, err := cm.Generate(context.Background(), "", []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama chat model llama3.1")
	assert.Equal(t, 0, cm.Cached())

	fail = false
	_, err = cm.Generate(context.Background(), "", []*schema.Message{schema.UserMessage("hi")})
	assert.NoError(t, err)
}
