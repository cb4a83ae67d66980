package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseStreams parses a comma separated list of stream definitions of the
// form [name=]initial:final:wcp, e.g. "H1=353:313:9.802,224:340:7.179".
func ParseStreams(spec string) ([]StreamData, error) {
	var streams []StreamData

	for i, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		var stream StreamData
		if name, rest, ok := strings.Cut(item, "="); ok {
			stream.Name = strings.TrimSpace(name)
			item = rest
		}

		fields := strings.Split(item, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("stream %d: expected initial:final:wcp, got %q", i+1, item)
		}

		values := make([]float64, 3)
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("stream %d: invalid number %q", i+1, f)
			}
			values[j] = v
		}
		stream.Initial, stream.Final, stream.WCp = values[0], values[1], values[2]

		streams = append(streams, stream)
	}

	if len(streams) == 0 {
		return nil, fmt.Errorf("no streams in %q", spec)
	}
	return streams, nil
}
