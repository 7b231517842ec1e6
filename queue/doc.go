// Package queue fans feed events out through Redis.
//
// When a Redis URL is configured, a Publisher is added to the monitor's
// sinks. Every event is published as JSON on a per-feed channel and pushed
// onto a capped list of recent events, so other processes can follow a feed
// live or catch up on what they missed.
//
// # Redis Key Schema
//
//   - sabik:feed:<feedID> - Pub/Sub channel carrying FeedMessage JSON
//   - sabik:feed:<feedID>:recent - List of the latest messages, newest first
//
// # Usage
//
//	client, err := queue.NewRedisClient(queue.RedisOptions{URL: "redis://localhost:6379"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	m := monitor.New(monitor.WithSink(queue.NewPublisher(client)))
//
// Following every feed from another process:
//
//	msgs, err := client.Subscribe(ctx, "")
//	for msg := range msgs {
//		fmt.Println(msg.FeedID, msg.Data)
//	}
package queue
