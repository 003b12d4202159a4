package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matst80/slask-filterset/pkg/common"
	"github.com/matst80/slask-filterset/pkg/messaging"
	"github.com/matst80/slask-filterset/pkg/navigation"
	"github.com/matst80/slask-filterset/pkg/server"
	"github.com/matst80/slask-filterset/pkg/storage"
)

var listenAddress = flag.String("listen", ":8080", "address to listen on, LISTEN_ADDRESS overrides")
var throttleMs = flag.Int("throttle", 100, "minimum milliseconds between mutations of one session, 0 disables")
var throttleBurst = flag.Int("throttle-burst", 1, "mutations of one session allowed back to back")
var searchUrl = os.Getenv("SEARCH_URL")
var searchHref = os.Getenv("SEARCH_HREF")
var excludedFields = os.Getenv("EXCLUDED_FIELDS")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var rabbitUrl = os.Getenv("RABBIT_URL")
var rabbitPrefix = os.Getenv("RABBIT_PREFIX")
var storagePath = "data/filtersets.json"

func init() {
	flag.Parse()
	if addr, ok := os.LookupEnv("LISTEN_ADDRESS"); ok {
		*listenAddress = addr
	}
	if p, ok := os.LookupEnv("STORAGE_PATH"); ok {
		storagePath = p
	}
	if rabbitPrefix == "" {
		rabbitPrefix = "portal"
	}
	if searchUrl == "" {
		log.Fatalf("No search url provided")
	}
}

func redisDb() int {
	db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		return 0
	}
	return db
}

func main() {
	var hooks []common.ShutdownHook
	var store storage.Storage

	if redisUrl != "" {
		rs := storage.NewRedisStorage(redisUrl, redisPassword, redisDb())
		hooks = append(hooks, func(ctx context.Context) error {
			return rs.Close()
		})
		store = rs
		log.Printf("using redis storage at %s", redisUrl)
	} else {
		store = storage.NewDiskStorage(storagePath)
		log.Printf("using disk storage at %s", storagePath)
	}

	if rabbitUrl != "" {
		publisher, err := messaging.NewAmqpPublisher(rabbitUrl, rabbitPrefix)
		if err != nil {
			log.Printf("Error connecting to rabbit, saved filter sets will not be published: %v", err)
		} else {
			store = &storage.NotifyingStorage{Storage: store, Publisher: publisher}
			hooks = append(hooks, func(ctx context.Context) error {
				return publisher.Close()
			})
		}
	}

	navigator := navigation.NewHttpNavigator(strings.TrimSuffix(searchUrl, "/"))
	timeouts := common.LoadTimeoutConfig(common.DefaultTimeouts)
	if secs, err := strconv.Atoi(os.Getenv("SEARCH_TIMEOUT")); err == nil && secs > 0 {
		navigator.Timeout = time.Duration(secs) * time.Second
	}

	opts := server.DefaultOptions()
	if searchHref != "" {
		opts.SearchHref = searchHref
	}
	if excludedFields != "" {
		opts.ExcludedFields = strings.Split(excludedFields, ",")
	}
	opts.ThrottleEvery = time.Duration(*throttleMs) * time.Millisecond
	opts.ThrottleBurst = *throttleBurst

	srv := server.NewFilterSetServer(store, navigator, navigator, opts)
	httpServer := common.NewServer(*listenAddress, srv.Handler(), timeouts)
	common.RunServerWithShutdown(httpServer, "filterset server", timeouts, hooks...)
}
