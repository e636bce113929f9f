// Copyright 2015 go-swagger maintainers
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package refnorm

import (
	"log"
	"os"
)

// Debug enables verbose tracing of scope pushes/pops, ref resolution and
// cache hits when JSONSCHEMA_DEBUG is set in the environment, or when set
// directly by a caller before invoking Normalize. Mirrors go-openapi/spec's
// own SWAGGER_DEBUG / Debug toggle.
var Debug = os.Getenv("JSONSCHEMA_DEBUG") != ""

var debugLogger = log.New(os.Stdout, "refnorm: ", log.LstdFlags)

func debugLog(msg string, args ...interface{}) {
	if Debug {
		debugLogger.Printf(msg, args...)
	}
}
