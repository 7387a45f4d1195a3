/*
Package observe implements a small actor pipeline that samples host cpu readings on a
fixed interval and aggregates them over a sliding window, with one trace span per
sampled Observation.

# Topology

	Sampler --mailbox(2)--> Aggregator --optional mailbox--> consumer

The Sampler opens an "observation" span on every tick, samples the Source inside it and
wraps the readings and the span context into an Observation. The Aggregator copies the
readings into a Window of the last ten batches, logs the window statistics inside the
observation span and forwards the Observation downstream when configured.

# Observation lifetime

An Observation carries its span. The span ends when the Observation is closed, never
earlier, and every Observation is closed exactly once by its last owner:

  - the Sampler, when the Aggregator is gone;
  - the Aggregator, after aggregating when nothing is downstream or the consumer is gone;
  - the downstream consumer, once it is done;
  - a mailbox, for values still buffered when its receiver leaves.

The Window holds copies of the readings, so keeping a batch in history never keeps
its span open. The "observations live" gauge reported through Instruments equals the
number of Observations built minus the number closed.

# Supervision

Start runs both actors and returns a Handle. The Handle resolves when the first actor
exits, for any reason, and cancels the other one.

	h, err := observe.Start(ctx, cfg, hostcpu.New(), nil,
		observe.WithInstruments(observe.NewInstruments(provider)),
		observe.WithLogger(log),
	)
	if err != nil {
		return err
	}
	<-h.Done()
*/
package observe
