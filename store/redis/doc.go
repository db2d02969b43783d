// Package redis implements the job journal and dead letter queue
// backed by Redis. Jobs and DLQ entries are stored as Hashes keyed by
// TypeID, with Sets tracking IDs for enumeration. It does not implement
// the record store; pair it with the postgres or memory backend when a
// record store is needed.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
//
//	p, err := pipeline.New(records,
//		pipeline.WithJournal(s),
//		pipeline.WithDLQStore(s),
//	)
package redis
