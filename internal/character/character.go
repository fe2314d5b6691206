package character

import (
	"errors"
	"strings"

	"github.com/bytedance/gg/gconv"
)

const (
	SimpleBuilderName      = "SimpleCharacterBuilder"
	TwitterUserBuilderName = "TwitterUserCharacterBuilder"

	maxBio              = 20
	maxLore             = 20
	maxKnowledge        = 30
	maxExamplePosts     = 15
	maxInterestedTopics = 10
)

var ErrMissingTwitterUsername = errors.New("twitter username is required")

// Builder renders a characteristic document into persona text for the system
// prompt. A literal "system_prompt" entry always wins over rendering.
type Builder interface {
	Build(characteristic map[string]any) (string, error)
}

func NewSimple(map[string]any) (Builder, error) {
	return simpleBuilder{}, nil
}

func NewTwitterUser(map[string]any) (Builder, error) {
	return twitterUserBuilder{}, nil
}

type simpleBuilder struct{}

const simpleTemplate = `
You are {name}, capable of executing any task assigned to you.

Here is a brief overview of your capabilities:    
{knowledge}

{bio}

{lore}

{interested_topics}`

func (simpleBuilder) Build(c map[string]any) (string, error) {
	if prompt, ok := literalPrompt(c); ok {
		return prompt, nil
	}

	name := personalInfo(c, "agent_name")
	if name == "" {
		name = "a highly intelligent AI assistant"
	}

	return strings.NewReplacer(
		"{name}", name,
		"{knowledge}", section("# Knowledge", c["knowledge"], maxKnowledge),
		"{bio}", section("# Bio", c["bio"], maxBio),
		"{lore}", section("# Lore", c["lore"], maxLore),
		"{interested_topics}", section("# Interested Topics", c["interested_topics"], maxInterestedTopics),
	).Replace(simpleTemplate), nil
}

type twitterUserBuilder struct{}

const twitterUserTemplate = `
You are {agent_name}, a highly intelligent agent, capable of executing any task assigned to you.

{knowledge}

About {agent_name} (@{twitter_username}):
{bio}

{lore}

{example_posts}

{interested_topics}

Again, your name is {agent_name}, and your twitter account is @{twitter_username}.
`

func (twitterUserBuilder) Build(c map[string]any) (string, error) {
	if prompt, ok := literalPrompt(c); ok {
		return prompt, nil
	}

	username := personalInfo(c, "twitter_username")
	if username == "" {
		return "", ErrMissingTwitterUsername
	}
	name := personalInfo(c, "agent_name")
	if name == "" {
		name = username
	}

	return strings.NewReplacer(
		"{agent_name}", name,
		"{twitter_username}", username,
		"{knowledge}", section("# Knowledge", c["knowledge"], maxKnowledge),
		"{bio}", section("# Bio", c["bio"], maxBio),
		"{lore}", section("# Lore", c["lore"], maxLore),
		"{example_posts}", section("# Example Posts", c["example_posts"], maxExamplePosts),
		"{interested_topics}", section("# Interested Topics", c["interested_topics"], maxInterestedTopics),
	).Replace(twitterUserTemplate), nil
}

func literalPrompt(c map[string]any) (string, bool) {
	v, ok := c["system_prompt"]
	if !ok {
		return "", false
	}
	return gconv.To[string](v), true
}

func personalInfo(c map[string]any, key string) string {
	info, _ := c["agent_personal_info"].(map[string]any)
	return strings.TrimSpace(gconv.To[string](info[key]))
}

// section renders a markdown header followed by up to limit bullet items.
func section(header string, raw any, limit int) string {
	items, _ := raw.([]any)
	var sb strings.Builder
	sb.WriteString(header)
	for i, item := range items {
		if i == limit {
			break
		}
		sb.WriteString("\n- ")
		sb.WriteString(gconv.To[string](item))
	}
	return sb.String()
}
