package middlewares

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"
)

// startRedisContainer runs a throwaway redis and returns its host address.
func startRedisContainer(t *testing.T) string {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	name := fmt.Sprintf("collections-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun("run", "-d", "--name", name, "-p", "127.0.0.1:0:6379", "redis:7")
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	t.Cleanup(func() { _, _ = dockerRun("rm", "-f", name) })

	out, err = dockerRun("port", name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v: %s", err, out)
	}
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		t.Fatalf("unexpected docker port output: %q", out)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return "127.0.0.1:" + m[1]
		}
		time.Sleep(300 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return ""
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
