package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/storage"
)

const (
	mariaDBRootPassword = "root"
	minioRootUser       = "minioadmin"
	minioRootPassword   = "minioadmin"
)

// service is one throwaway container started for the integration suite.
type service struct {
	name    string
	opts    dockertest.RunOptions
	port    docker.Port
	isReady func(ctx context.Context, hostAddr string) error
}

// start runs svc and blocks until isReady succeeds. It returns the
// "localhost:port" address mapped to svc.port and a func purging the container.
func (svc service) start() (string, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, fmt.Errorf("could not connect to docker: %w", err)
	}
	pool.MaxWait = 2 * time.Minute

	res, err := pool.RunWithOptions(&svc.opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", nil, fmt.Errorf("could not start %s container: %w", svc.name, err)
	}
	purge := func() {
		if err := pool.Purge(res); err != nil {
			logger.Warnf(context.Background(), "could not purge %s container: %v", svc.name, err)
		}
	}

	addr := "localhost:" + res.GetPort(string(svc.port))
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return svc.isReady(ctx, addr)
	})
	if err != nil {
		purge()
		return "", nil, fmt.Errorf("%s did not become ready: %w", svc.name, err)
	}
	return addr, purge, nil
}

type ContainerInfo struct {
	DSN     string
	Cleanup func()
}

// StartMariaDBContainer returns a root DSN on the "mediapipeline" schema.
// The schema itself is created per test by SetupTestDB.
func StartMariaDBContainer() (*ContainerInfo, error) {
	addr, purge, err := service{
		name: "mariadb",
		opts: dockertest.RunOptions{
			Repository: "mariadb",
			Tag:        "10.11",
			Env:        []string{"MARIADB_ROOT_PASSWORD=" + mariaDBRootPassword},
		},
		port: "3306/tcp",
		isReady: func(ctx context.Context, addr string) error {
			db, err := sql.Open("mysql", fmt.Sprintf("root:%s@(%s)/mysql", mariaDBRootPassword, addr))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return db.PingContext(ctx)
		},
	}.start()
	if err != nil {
		return nil, err
	}
	return &ContainerInfo{
		DSN:     fmt.Sprintf("root:%s@(%s)/mediapipeline?parseTime=true", mariaDBRootPassword, addr),
		Cleanup: purge,
	}, nil
}

type RedisContainerInfo struct {
	Addr    string
	Cleanup func()
}

func StartRedisContainer() (*RedisContainerInfo, error) {
	addr, purge, err := service{
		name: "redis",
		opts: dockertest.RunOptions{Repository: "redis", Tag: "7"},
		port: "6379/tcp",
		isReady: func(ctx context.Context, addr string) error {
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			defer func() { _ = rdb.Close() }()
			return rdb.Ping(ctx).Err()
		},
	}.start()
	if err != nil {
		return nil, err
	}
	return &RedisContainerInfo{Addr: addr, Cleanup: purge}, nil
}

type MinIOContainerInfo struct {
	Endpoint string
	Strg     *storage.MinioStorage
	// Client is the raw SDK client, used to inspect and empty buckets.
	Client  *minio.Client
	Cleanup func()
}

func StartMinIOContainer() (*MinIOContainerInfo, error) {
	addr, purge, err := service{
		name: "minio",
		opts: dockertest.RunOptions{
			Repository: "minio/minio",
			Tag:        "latest",
			Env:        []string{"MINIO_ROOT_USER=" + minioRootUser, "MINIO_ROOT_PASSWORD=" + minioRootPassword},
			Cmd:        []string{"server", "/data"},
		},
		port: "9000/tcp",
		isReady: func(ctx context.Context, addr string) error {
			c, err := newMinioClient(addr, minioRootUser, minioRootPassword, false)
			if err != nil {
				return err
			}
			_, err = c.ListBuckets(ctx)
			return err
		},
	}.start()
	if err != nil {
		return nil, err
	}

	mi, err := ConnectMinIO(addr, minioRootUser, minioRootPassword, false)
	if err != nil {
		purge()
		return nil, err
	}
	mi.Cleanup = purge
	return mi, nil
}

// ConnectMinIO builds the storage and raw client for an already running MinIO.
func ConnectMinIO(endpoint, accessKey, secretKey string, useSSL bool) (*MinIOContainerInfo, error) {
	client, err := newMinioClient(endpoint, accessKey, secretKey, useSSL)
	if err != nil {
		return nil, err
	}
	strg, err := storage.NewMinioStorage(endpoint, accessKey, secretKey, useSSL)
	if err != nil {
		return nil, fmt.Errorf("could not create minio storage: %w", err)
	}
	return &MinIOContainerInfo{Endpoint: endpoint, Strg: strg, Client: client, Cleanup: func() {}}, nil
}

func newMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create minio client: %w", err)
	}
	return c, nil
}
