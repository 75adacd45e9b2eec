package memnetwork

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "memnetwork")
