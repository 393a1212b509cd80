package main

import (
	"context"

	"github.com/Abraxas-365/mandrillx/pkg/config"
	"github.com/Abraxas-365/mandrillx/pkg/fsx"
	"github.com/Abraxas-365/mandrillx/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/mandrillx/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/mandrillx/pkg/hookx"
	"github.com/Abraxas-365/mandrillx/pkg/hookx/hookxpg"
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/mandrillx/pkg/notifx/notifxmandrill"
	"github.com/Abraxas-365/mandrillx/pkg/notifx/notifxses"
	"github.com/Abraxas-365/mandrillx/pkg/outbox"
	"github.com/Abraxas-365/mandrillx/pkg/outbox/outboxredis"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Container owns the infrastructure a command needs. Each piece is built on
// first use so that e.g. `send` never dials Redis.
type Container struct {
	Config *config.Config

	client *mandrillx.Client
	files  fsx.FileReader
	redis  *redis.Client
	db     *sqlx.DB
}

func NewContainer(cfg *config.Config) *Container {
	return &Container{Config: cfg}
}

func (c *Container) Mandrill() (*mandrillx.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	client, err := mandrillx.NewClient(c.Config.Mandrill.ClientConfig())
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

func (c *Container) Files(ctx context.Context) (fsx.FileReader, error) {
	if c.files != nil {
		return c.files, nil
	}

	st := c.Config.Storage
	switch st.Mode {
	case "s3":
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(st.S3Region))
		if err != nil {
			return nil, err
		}
		c.files = fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), st.S3Bucket, st.S3Prefix)
		logx.Debugf("attachments from s3://%s/%s", st.S3Bucket, st.S3Prefix)
	default:
		local, err := fsxlocal.NewLocalFileSystem(st.LocalPath)
		if err != nil {
			return nil, err
		}
		c.files = local
		logx.Debugf("attachments from %s", local.GetBasePath())
	}
	return c.files, nil
}

func (c *Container) Redis(ctx context.Context) (*redis.Client, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	c.redis = rdb
	logx.Infof("Redis connected (%s)", c.Config.Redis.Address())
	return rdb, nil
}

func (c *Container) DB(ctx context.Context) (*sqlx.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.db = db
	logx.Info("Database connected")
	return db, nil
}

// Outbox builds the Redis-backed outbox around the Mandrill client.
func (c *Container) Outbox(ctx context.Context) (*outbox.Outbox, error) {
	client, err := c.Mandrill()
	if err != nil {
		return nil, err
	}
	rdb, err := c.Redis(ctx)
	if err != nil {
		return nil, err
	}
	oc := c.Config.Outbox
	queue := outboxredis.NewRedisQueue(rdb, oc.Prefix, oc.EntryTTL)
	return outbox.New(queue, client, oc.Options()...), nil
}

// Notifier builds the notifx client for the configured provider.
func (c *Container) Notifier(ctx context.Context) (*notifx.Client, error) {
	nc := c.Config.Notify
	from := nc.FromAddress
	if from == "" {
		from = c.Config.Mandrill.FromAddress
	}

	switch nc.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(nc.AWSRegion))
		if err != nil {
			return nil, err
		}
		return notifx.NewClient(notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), from)), nil
	case "console":
		return notifx.NewClient(notifxconsole.NewConsoleProvider()), nil
	default:
		client, err := c.Mandrill()
		if err != nil {
			return nil, err
		}
		return notifx.NewClient(notifxmandrill.NewMandrillProvider(client, from)), nil
	}
}

// Webhook builds the webhook handler. Events are always logged and, when
// persistence is on, stored in Postgres.
func (c *Container) Webhook(ctx context.Context) (*hookx.Handler, error) {
	auth, err := hookx.NewAuthenticator(c.Config.Webhook.AuthConfig())
	if err != nil {
		return nil, err
	}

	dispatcher := hookx.NewDispatcher(logEvent)
	if c.Config.Webhook.Persist {
		db, err := c.DB(ctx)
		if err != nil {
			return nil, err
		}
		store := hookxpg.NewStore(db, c.Config.Webhook.Table)
		if err := store.CreateTable(ctx); err != nil {
			return nil, err
		}
		dispatcher.Register(store.Callback())
	}
	return hookx.NewHandler(auth, dispatcher), nil
}

func logEvent(_ context.Context, ev hookx.Event) error {
	logx.WithFields(logx.Fields{
		"event":      ev.Type,
		"message_id": ev.MessageID(),
		"email":      ev.Email(),
	}).Info("webhook event received")
	return nil
}

func (c *Container) Cleanup() {
	if c.client != nil {
		c.client.Close()
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}
}
