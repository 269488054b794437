// Package influxdb exports throughput reports to InfluxDB v2.
//
// Each report becomes one point in the "broker_throughput" measurement,
// tagged with the client name, broker host and compression level:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteThroughput(influxdb.Throughput{ClientName: "brokerstat", Count: 3, Size: 60})
//
// Writes are batched according to batch_size and flush_interval and never
// block the caller. Asynchronous write errors are delivered to the callback
// installed with SetOnError.
package influxdb
