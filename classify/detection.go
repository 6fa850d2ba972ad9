/*
DESCRIPTION
  detection.go provides parsing of the detection output of SSD networks into
  animal and human confidences.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package classify

import (
	"fmt"
	"math"
)

// Columns of an SSD detection row: image index, class, confidence and the
// box corners left, top, right and bottom.
const (
	detClassCol = 1
	detConfCol  = 2
	detRowLen   = 7
)

// Classes of the human and animal SSD network. Class 0 is the background.
const (
	humanClass  = 1
	animalClass = 2
)

// parseDetections returns the highest animal and human confidences of the
// detection rows in det. If humans is false every detection is an animal.
func parseDetections(det []float32, humans bool) (animal, human float64, err error) {
	if len(det)%detRowLen != 0 {
		return 0, 0, fmt.Errorf("detection output length %d is not a multiple of %d", len(det), detRowLen)
	}
	for i := 0; i < len(det); i += detRowLen {
		row := det[i : i+detRowLen]
		conf := float64(row[detConfCol])
		if !humans {
			animal = math.Max(animal, conf)
			continue
		}
		switch int(row[detClassCol]) {
		case humanClass:
			human = math.Max(human, conf)
		case animalClass:
			animal = math.Max(animal, conf)
		}
	}
	return animal, human, nil
}
