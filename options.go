package feedloop

import "go.uber.org/zap"

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs      []string
	password   string
	apiKey     string
	baseURL    string
	embedModel string
	chatModel  string
	dimensions int
	keyPrefix  string
	indexName  string
	hnswM      int
	hnswEF     int
	logger     *zap.Logger
}

// WithRedis sets the Redis/Valkey addresses to connect to.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithPassword sets the store password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithOpenAI sets the model provider credentials. baseURL may be empty for
// the default endpoint, or point at any OpenAI-compatible server.
func WithOpenAI(apiKey, baseURL string) Option {
	return func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	}
}

// WithModels overrides the embedding and chat model names.
func WithModels(embedModel, chatModel string) Option {
	return func(c *clientConfig) {
		c.embedModel = embedModel
		c.chatModel = chatModel
	}
}

// WithDimensions sets the embedding vector dimensionality.
func WithDimensions(n int) Option {
	return func(c *clientConfig) { c.dimensions = n }
}

// WithKeyPrefix overrides the key namespace of all stored data.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithIndexName overrides the search index name.
func WithIndexName(name string) Option {
	return func(c *clientConfig) { c.indexName = name }
}

// WithHNSW tunes the vector index graph parameters.
func WithHNSW(m, efConstruction int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEF = efConstruction
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
