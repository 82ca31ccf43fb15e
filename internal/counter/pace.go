package counter

import "time"

// speakStep returns the first spoken number and the step between spoken
// numbers for a speed. Higher speeds speak fewer numbers.
func speakStep(speed int) int {
	switch {
	case speed <= 2:
		return 1
	case speed <= 4:
		return 2
	case speed <= 6:
		return 3
	default:
		return 5
	}
}

// NumbersToSpeak returns, in increasing order, the numbers in [1, maxCount]
// that are announced aloud at the given speed.
func NumbersToSpeak(maxCount, speed int) []int {
	step := speakStep(speed)
	if maxCount < step {
		return []int{}
	}
	nums := make([]int, 0, maxCount/step)
	for n := step; n <= maxCount; n += step {
		nums = append(nums, n)
	}
	return nums
}

// ShouldSpeak reports whether n is in NumbersToSpeak(maxCount, speed) for
// any maxCount >= n.
func ShouldSpeak(n, speed int) bool {
	return n >= 1 && n%speakStep(speed) == 0
}

// NumberDelay is the pause after each counted number: unit / speed.
func NumberDelay(unit time.Duration, speed int) time.Duration {
	if speed < 1 {
		speed = 1
	}
	return unit / time.Duration(speed)
}

// SetDelay is the pause after announcing a set: twice the number delay.
func SetDelay(unit time.Duration, speed int) time.Duration {
	return 2 * NumberDelay(unit, speed)
}
