package busstop

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "busstop")
