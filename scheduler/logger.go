package scheduler

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "scheduler")
