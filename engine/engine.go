// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Engine runs a set of components until one of them finishes or fails, or until
// it receives a signal.
type Engine struct {
	log        zerolog.Logger
	components []component
	sig        chan os.Signal
}

type component struct {
	name string
	run  func() error
	stop func()
}

// result is what a component reports once its run function returned.
type result struct {
	name     string
	err      error
	duration time.Duration
}

// New creates a new engine.
func New(log zerolog.Logger, name string, sig chan os.Signal) *Engine {
	e := Engine{
		log: log.With().Str("engine", name).Logger(),
		sig: sig,
	}

	return &e
}

// Component registers a new component for the engine. Components will be shut down
// in the same order as the one in which they were registered.
func (e *Engine) Component(name string, run func() error, stop func()) *Engine {
	e.components = append(e.components, component{
		name: name,
		run:  run,
		stop: stop,
	})

	return e
}

// Run launches the engine components and waits for them to either finish successfully,
// fail, or for an external signal to shut the engine down. It then stops all components
// and returns the error of the failed component, if any.
func (e *Engine) Run() error {

	// The channel is big enough for every component to report without
	// blocking, even once nobody listens anymore.
	results := make(chan result, len(e.components))
	for _, c := range e.components {
		go e.launch(c, results)
	}

	// Here, we are waiting for a signal, or for one of the components to fail
	// or finish. In both cases, we proceed to shut down everything, while also
	// entering a goroutine that allows us to force shut down by sending
	// another signal.
	var err error
	select {
	case <-e.sig:
		e.log.Info().Msg("engine stopping")
	case res := <-results:
		log := e.log.With().Str("component", res.name).Dur("duration", res.duration).Logger()
		if res.err != nil {
			log.Error().Err(res.err).Msg("engine aborted by component failure")
			err = fmt.Errorf("component %s failed: %w", res.name, res.err)
		} else {
			log.Info().Msg("engine done after component finished")
		}
	}
	go func() {
		<-e.sig
		e.log.Warn().Msg("forcing exit")
		os.Exit(1)
	}()

	for _, c := range e.components {
		c.stop()
		e.log.Info().Str("component", c.name).Msg("component stopped")
	}

	return err
}

func (e *Engine) launch(c component, results chan<- result) {
	e.log.Info().Str("component", c.name).Msg("component starting")

	start := time.Now()
	err := c.run()
	results <- result{
		name:     c.name,
		err:      err,
		duration: time.Since(start),
	}
}
