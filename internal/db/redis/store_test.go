package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/suggestd/internal/db"
)

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		result  rueidis.RedisResult
		wantErr bool
	}{
		{"pong", mock.Result(mock.RedisString("PONG")), false},
		{"timeout", mock.ErrorResult(context.DeadlineExceeded), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(tc.result)

			err := NewStoreForTest(c, "valkey").Ping(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("Ping() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Error("expected error for empty addrs")
	}
	if _, err := NewStore(Config{Driver: "memcached", Addrs: []string{"localhost:6379"}}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("loading"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)

	if err := NewStoreForTest(c, "redis").WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("refused"))).AnyTimes()

	err := NewStoreForTest(c, "valkey").WaitForReady(context.Background(), 120*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestAppendDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("MULTI"),
			mock.Match("HSET", "suggestd:doc:projects:p1", "text", "Web Platform"),
			mock.MatchFn(func(cmd []string) bool {
				return len(cmd) == 4 && cmd[0] == "ZADD" && cmd[1] == "suggestd:docs" &&
					cmd[2] == "42" && cmd[3] == "suggestd:doc:projects:p1"
			}),
			mock.Match("EXEC"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisArray(mock.RedisInt64(1), mock.RedisInt64(1))),
		})

	err := NewStoreForTest(c, "valkey").AppendDocument(context.Background(),
		"suggestd:docs", "suggestd:doc:projects:p1", 42, map[string]string{"text": "Web Platform"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendDocument_ExecError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.ErrorResult(errors.New("EXECABORT")),
		})

	err := NewStoreForTest(c, "valkey").AppendDocument(context.Background(),
		"idx", "k", 1, map[string]string{"f": "v"})
	assertDBError(t, err, db.OpExec)
}

func TestListDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZRANGE", "suggestd:docs", "0", "-1")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("suggestd:doc:chat_history:c1"),
			mock.RedisString("suggestd:doc:chat_history:gone"),
			mock.RedisString("suggestd:doc:projects:p1"),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HGETALL", "suggestd:doc:chat_history:c1"),
			mock.Match("HGETALL", "suggestd:doc:chat_history:gone"),
			mock.Match("HGETALL", "suggestd:doc:projects:p1"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{"id": mock.RedisString("c1")})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{"id": mock.RedisString("p1")})),
		})

	recs, err := NewStoreForTest(c, "valkey").ListDocuments(context.Background(), "suggestd:docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2 (missing hash dropped)", len(recs))
	}
	if recs[0].Key != "suggestd:doc:chat_history:c1" || recs[1].Fields["id"] != "p1" {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestListDocuments_EmptyIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("ZRANGE", "idx", "0", "-1")).
		Return(mock.Result(mock.RedisArray()))

	recs, err := NewStoreForTest(c, "valkey").ListDocuments(context.Background(), "idx")
	if err != nil || recs != nil {
		t.Fatalf("got %v, %v; want nil, nil", recs, err)
	}
}

func TestListDocuments_Errors(t *testing.T) {
	t.Run("zrange", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c := mock.NewClient(ctrl)
		c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.Canceled))

		_, err := NewStoreForTest(c, "valkey").ListDocuments(context.Background(), "idx")
		assertDBError(t, err, db.OpZRange)
	})

	t.Run("hgetall", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c := mock.NewClient(ctrl)
		c.EXPECT().Do(gomock.Any(), gomock.Any()).
			Return(mock.Result(mock.RedisArray(mock.RedisString("k1"))))
		c.EXPECT().DoMulti(gomock.Any(), gomock.Any()).
			Return([]rueidis.RedisResult{mock.ErrorResult(errors.New("moved"))})

		_, err := NewStoreForTest(c, "valkey").ListDocuments(context.Background(), "idx")
		assertDBError(t, err, db.OpHGetAll)
	})
}

func TestFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("GET", "suggestd:emb_cache:abc"),
			mock.Match("EXPIRE", "suggestd:emb_cache:abc", "3600"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisBlobString("value")),
			mock.Result(mock.RedisInt64(1)),
		})

	data, err := NewStoreForTest(c, "valkey").Fetch(context.Background(), "suggestd:emb_cache:abc", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestFetch_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisNil()), mock.Result(mock.RedisInt64(0))})

	_, err := NewStoreForTest(c, "valkey").Fetch(context.Background(), "missing", time.Minute)
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestFetch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.ErrorResult(context.DeadlineExceeded),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	_, err := NewStoreForTest(c, "valkey").Fetch(context.Background(), "k", time.Minute)
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("network errors must not look like a missing key")
	}
	assertDBError(t, err, db.OpGet)
}

func TestPut(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := NewStoreForTest(c, "valkey").Put(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertDBError(t *testing.T, err error, op string) {
	t.Helper()
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *db.Error, got %T (%v)", err, err)
	}
	if dbErr.Op != op {
		t.Errorf("op = %s, want %s", dbErr.Op, op)
	}
}
