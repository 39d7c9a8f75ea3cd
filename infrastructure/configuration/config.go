package configuration

import (
	"fmt"
	"os"
	"strconv"

	"social-reward-engine/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Events      Events      `json:"events"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	XAPI        XAPI        `json:"xApi"`
	LLM         LLM         `json:"llm"`
	Jobs        Jobs        `json:"jobs"`
	Payment     Payment     `json:"payment"`
	Worker      Worker      `json:"worker"`
}

type App struct {
	Port          int      `json:"port"`
	Env           string   `json:"env"`
	SecretKey     string   `json:"secretKey"`
	ServiceAPIKey string   `json:"serviceApiKey"`
	AllowOrigins  []string `json:"allowOrigins"`
	TLSEnabled    bool     `json:"tlsEnabled"`
	TLSCertFile   string   `json:"tlsCertFile"`
	TLSKeyFile    string   `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	URI      string `json:"uri"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// Events selects where payout events go: "pubsub", "servicebus" or "" (off).
type Events struct {
	Sink string `json:"sink"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

type XAPI struct {
	BaseURL     string `json:"baseUrl"`
	BearerToken string `json:"bearerToken"`
	UserID      string `json:"userId"`
	PageSize    int    `json:"pageSize"`
	// RequestsPerMinute paces page requests against the upstream quota.
	RequestsPerMinute int `json:"requestsPerMinute"`
}

type LLM struct {
	BaseURL        string `json:"baseUrl"`
	APIKey         string `json:"apiKey"`
	Provider       string `json:"provider"`
	TemplateName   string `json:"templateName"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type Jobs struct {
	Enabled             bool `json:"enabled"`
	IngestIntervalSec   int  `json:"ingestIntervalSec"`
	ScoringIntervalSec  int  `json:"scoringIntervalSec"`
	PayoutIntervalSec   int  `json:"payoutIntervalSec"`
	PassTimeoutSec      int  `json:"passTimeoutSec"`
	ScorerBatchSize     int  `json:"scorerBatchSize"`
	PayoutBatchSize     int  `json:"payoutBatchSize"`
	RetentionDays       int  `json:"retentionDays"`
	RateLimitBackoffMin int  `json:"rateLimitBackoffMin"`
}

type Payment struct {
	Network            string `json:"network"`
	ChainID            int64  `json:"chainId"`
	TokenAddress       string `json:"tokenAddress"`
	TokenDecimals      int32  `json:"tokenDecimals"`
	PayerPrivateKey    string `json:"payerPrivateKey"`
	FacilitatorAddress string `json:"facilitatorAddress"`
	DomainName         string `json:"domainName"`
	DomainVersion      string `json:"domainVersion"`
	WorkerURL          string `json:"workerUrl"`
	WorkerAPIKey       string `json:"workerApiKey"`
	TimeoutSeconds     int    `json:"timeoutSeconds"`
}

type Worker struct {
	Port           int    `json:"port"`
	APIKey         string `json:"apiKey"`
	BackendURL     string `json:"backendUrl"`
	BackendAPIKey  string `json:"backendApiKey"`
	FacilitatorURL string `json:"facilitatorUrl"`
	CDPKeyID       string `json:"cdpKeyId"`
	CDPKeySecret   string `json:"cdpKeySecret"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

var C Config

func init() {
	Reload()
}

// Reload re-reads the config file and environment. main calls it after
// loading .env files so their values take effect.
func Reload() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initUpstreams(&C)
	initJobs(&C)
	initPayment(&C)
	initWorker(&C)
	logger.SetFormat(C.Logger.Format)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Mongo.URI = getConfigValue(C.Database.Mongo.URI, "MONGODB_URI", "")
	C.Database.Mongo.Host = getConfigValue(C.Database.Mongo.Host, "MONGO_HOST", "localhost")
	C.Database.Mongo.Port = getConfigValue(C.Database.Mongo.Port, "MONGO_PORT", "27017")
	C.Database.Mongo.User = getConfigValue(C.Database.Mongo.User, "MONGO_USER", "")
	C.Database.Mongo.Password = getConfigValue(C.Database.Mongo.Password, "MONGO_PASSWORD", "")
	C.Database.Mongo.Name = getConfigValue(C.Database.Mongo.Name, "MONGODB_DATABASE", "social_reward_engine")

	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")

	C.Database.Mssql.Name = getConfigValue(C.Database.Mssql.Name, "MSSQL_DB_NAME", "")
	C.Database.Mssql.Host = getConfigValue(C.Database.Mssql.Host, "MSSQL_HOST", "")
	C.Database.Mssql.User = getConfigValue(C.Database.Mssql.User, "MSSQL_USER", "")
	C.Database.Mssql.Password = getConfigValue(C.Database.Mssql.Password, "MSSQL_PASSWORD", "")
	C.Database.Mssql.Port = getConfigValue(C.Database.Mssql.Port, "MSSQL_PORT", "1433")
}

func initApp(C *Config) {
	C.App.Env = getConfigValue(C.App.Env, "ENV", "development")
	C.App.SecretKey = getConfigValue(C.App.SecretKey, "SECRET_KEY", "")
	C.App.ServiceAPIKey = getConfigValue(C.App.ServiceAPIKey, "SERVICE_API_KEY", "")
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if len(C.App.AllowOrigins) == 0 {
		C.App.AllowOrigins = []string{"http://localhost:3000", "http://localhost:4200"}
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		C.App.TLSEnabled = parseBool(v, C.App.TLSEnabled)
	}
	C.App.TLSCertFile = getConfigValue(C.App.TLSCertFile, "TLS_CERT_FILE", "")
	C.App.TLSKeyFile = getConfigValue(C.App.TLSKeyFile, "TLS_KEY_FILE", "")
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; admin endpoints will reject every request. Provide SECRET_KEY via environment.")
	}
}

func initUpstreams(C *Config) {
	C.XAPI.BaseURL = getConfigValue(C.XAPI.BaseURL, "X_API_BASE_URL", "https://api.x.com/2")
	C.XAPI.BearerToken = getConfigValue(C.XAPI.BearerToken, "X_API_BEARER_TOKEN", "")
	C.XAPI.UserID = getConfigValue(C.XAPI.UserID, "X_API_USER_ID", "")
	if C.XAPI.PageSize <= 0 || C.XAPI.PageSize > 100 {
		C.XAPI.PageSize = 20
	}
	if C.XAPI.RequestsPerMinute <= 0 {
		C.XAPI.RequestsPerMinute = 10
	}

	C.LLM.BaseURL = getConfigValue(C.LLM.BaseURL, "LLM_SERVICE_URL", "")
	C.LLM.APIKey = getConfigValue(C.LLM.APIKey, "LLM_SERVICE_API_KEY", "")
	C.LLM.Provider = getConfigValue(C.LLM.Provider, "LLM_PROVIDER", "anthropic")
	C.LLM.TemplateName = getConfigValue(C.LLM.TemplateName, "LLM_TEMPLATE_NAME", "scoring/quality-score")
	if C.LLM.TimeoutSeconds <= 0 {
		C.LLM.TimeoutSeconds = 60
	}

	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_TOPIC", "payout-events")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.Queue = getConfigValue(C.ServiceBus.Queue, "SERVICEBUS_QUEUE", "payout-events")
	C.Events.Sink = getConfigValue(C.Events.Sink, "EVENTS_SINK", "")
}

func initJobs(C *Config) {
	if v := os.Getenv("JOBS_ENABLED"); v != "" {
		C.Jobs.Enabled = parseBool(v, C.Jobs.Enabled)
	}
	C.Jobs.IngestIntervalSec = defaultInt(C.Jobs.IngestIntervalSec, 5*60)
	C.Jobs.ScoringIntervalSec = defaultInt(C.Jobs.ScoringIntervalSec, 5*60)
	C.Jobs.PayoutIntervalSec = defaultInt(C.Jobs.PayoutIntervalSec, 10*60)
	C.Jobs.PassTimeoutSec = defaultInt(C.Jobs.PassTimeoutSec, 4*60)
	C.Jobs.ScorerBatchSize = defaultInt(envInt("SCORER_BATCH_SIZE", C.Jobs.ScorerBatchSize), 10)
	C.Jobs.PayoutBatchSize = defaultInt(envInt("PAYOUT_BATCH_SIZE", C.Jobs.PayoutBatchSize), 10)
	C.Jobs.RetentionDays = defaultInt(C.Jobs.RetentionDays, 90)
	C.Jobs.RateLimitBackoffMin = defaultInt(C.Jobs.RateLimitBackoffMin, 20)
}

func initPayment(C *Config) {
	C.Payment.Network = getConfigValue(C.Payment.Network, "PAYOUT_NETWORK", "base")
	if C.Payment.ChainID == 0 {
		C.Payment.ChainID = 8453
	}
	C.Payment.TokenAddress = getConfigValue(C.Payment.TokenAddress, "PAYOUT_TOKEN_ADDRESS", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	if C.Payment.TokenDecimals == 0 {
		C.Payment.TokenDecimals = 6
	}
	C.Payment.PayerPrivateKey = getConfigValue(C.Payment.PayerPrivateKey, "PAYER_PRIVATE_KEY", "")
	C.Payment.FacilitatorAddress = getConfigValue(C.Payment.FacilitatorAddress, "FACILITATOR_ADDRESS", "")
	C.Payment.DomainName = getConfigValue(C.Payment.DomainName, "PAYMENT_DOMAIN_NAME", "x402 Settlement")
	C.Payment.DomainVersion = getConfigValue(C.Payment.DomainVersion, "PAYMENT_DOMAIN_VERSION", "1")
	C.Payment.WorkerURL = getConfigValue(C.Payment.WorkerURL, "X402_WORKER_URL", "")
	C.Payment.WorkerAPIKey = getConfigValue(C.Payment.WorkerAPIKey, "X402_WORKER_API_KEY", "")
	if C.Payment.TimeoutSeconds <= 0 {
		C.Payment.TimeoutSeconds = 60
	}
}

func initWorker(C *Config) {
	C.Worker.Port = envInt("WORKER_PORT", C.Worker.Port)
	if C.Worker.Port == 0 {
		C.Worker.Port = 10002
	}
	C.Worker.APIKey = getConfigValue(C.Worker.APIKey, "API_KEY", "")
	C.Worker.BackendURL = getConfigValue(C.Worker.BackendURL, "BACKEND_URL", fmt.Sprintf("http://localhost:%d", C.App.Port))
	C.Worker.BackendAPIKey = getConfigValue(C.Worker.BackendAPIKey, "BACKEND_API_KEY", "")
	C.Worker.FacilitatorURL = getConfigValue(C.Worker.FacilitatorURL, "FACILITATOR_URL", "https://api.cdp.coinbase.com/platform/v2/x402/settle")
	C.Worker.CDPKeyID = getConfigValue(C.Worker.CDPKeyID, "CDP_API_KEY_ID", "")
	C.Worker.CDPKeySecret = getConfigValue(C.Worker.CDPKeySecret, "CDP_API_KEY_SECRET", "")
	if C.Worker.TimeoutSeconds <= 0 {
		C.Worker.TimeoutSeconds = 60
	}
}
