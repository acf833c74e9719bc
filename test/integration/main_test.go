package integration

import (
	"fmt"
	"os"
	"testing"

	"github.com/fhuszti/media-pipeline/test/testutil"
)

var (
	globalMinio     *testutil.MinIOContainerInfo
	globalRedisAddr string
)

type errorResponse struct {
	Error string `json:"error"`
}

// Each backend is reused from the environment when CI provides it and
// started in a container otherwise.
var backends = []struct {
	name  string
	setup func() (func(), error)
}{
	{"MariaDB", setupMariaDB},
	{"MinIO", setupMinIO},
	{"Redis", setupRedis},
}

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	for _, b := range backends {
		cleanup, err := b.setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s setup failed: %v\n", b.name, err)
			return 1
		}
		defer cleanup()
	}
	return m.Run()
}

func noop() {}

func setupMariaDB() (func(), error) {
	if os.Getenv("TEST_DB_DSN") != "" {
		return noop, nil
	}
	mdb, err := testutil.StartMariaDBContainer()
	if err != nil {
		return nil, err
	}
	if err := os.Setenv("TEST_DB_DSN", mdb.DSN); err != nil {
		mdb.Cleanup()
		return nil, err
	}
	return mdb.Cleanup, nil
}

func setupMinIO() (func(), error) {
	var (
		mi  *testutil.MinIOContainerInfo
		err error
	)
	if endpoint := os.Getenv("TEST_MINIO_ENDPOINT"); endpoint != "" {
		mi, err = testutil.ConnectMinIO(
			endpoint,
			os.Getenv("TEST_MINIO_ACCESS_KEY"),
			os.Getenv("TEST_MINIO_SECRET_KEY"),
			os.Getenv("TEST_MINIO_USE_SSL") == "true",
		)
	} else {
		mi, err = testutil.StartMinIOContainer()
	}
	if err != nil {
		return nil, err
	}
	globalMinio = mi
	return mi.Cleanup, nil
}

func setupRedis() (func(), error) {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		globalRedisAddr = addr
		return noop, nil
	}
	ri, err := testutil.StartRedisContainer()
	if err != nil {
		return nil, err
	}
	globalRedisAddr = ri.Addr
	return ri.Cleanup, nil
}
