package bus

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "bus")
